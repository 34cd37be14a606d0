package classifier

import "errors"

var errProviderFailed = errors.New("classifier: provider call failed")
