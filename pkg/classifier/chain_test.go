package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

type fakeProvider struct {
	name      string
	available bool
	result    Result
	err       error
	calls     int
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return f.available }
func (f *fakeProvider) Classify(ctx context.Context, content string, collection config.Collection, currentType config.MemoryType) (Result, error) {
	f.calls++
	return f.result, f.err
}

func testCfg() config.ClassifierConfig {
	return config.ClassifierConfig{
		Enabled:               true,
		ConfidenceThreshold:   0.7,
		RuleConfidence:        0.95, // above every rule's static confidence, so rules never fire in these tests
		CircuitFailThreshold:  2,
		CircuitCooldown:       time.Minute,
		CircuitHalfOpenProbes: 1,
		ProviderRPM:           600,
		ProviderBurst:         10,
	}
}

func TestClassify_KillSwitchReturnsOriginal(t *testing.T) {
	cfg := testCfg()
	cfg.Enabled = false
	c := New(cfg, nil)
	out := c.Classify(context.Background(), "a reasonably long piece of content describing a bug fix", config.CollectionCodePatterns, config.MemoryTypeImplementation)
	assert.False(t, out.WasReclassified)
	assert.Equal(t, config.MemoryTypeImplementation, out.Type)
}

func TestClassify_SkipLevelReturnsOriginal(t *testing.T) {
	c := New(testCfg(), nil)
	out := c.Classify(context.Background(), "ok", config.CollectionCodePatterns, config.MemoryTypeImplementation)
	assert.False(t, out.WasReclassified)
}

func TestClassify_ProtectedTypeNeverReclassified(t *testing.T) {
	p := &fakeProvider{name: "p", available: true, result: Result{Type: config.MemoryTypeErrorFix, Confidence: 0.95}}
	c := New(testCfg(), []Provider{p})
	out := c.Classify(context.Background(), "this is a long enough message to pass significance checks for sure", config.CollectionDiscussions, config.MemoryTypeSessionSummary)
	assert.False(t, out.WasReclassified)
	assert.Equal(t, 0, p.calls)
}

func TestClassify_ProviderAcceptedAboveThreshold(t *testing.T) {
	p := &fakeProvider{name: "p", available: true, result: Result{Type: config.MemoryTypeErrorFix, Confidence: 0.95}}
	c := New(testCfg(), []Provider{p})
	out := c.Classify(context.Background(), "this is a long enough message describing something that happened during debugging", config.CollectionCodePatterns, config.MemoryTypeImplementation)
	assert.True(t, out.WasReclassified)
	assert.Equal(t, config.MemoryTypeErrorFix, out.Type)
	assert.Equal(t, "p", out.ProviderUsed)
}

func TestClassify_LowConfidenceFallsThrough(t *testing.T) {
	p := &fakeProvider{name: "p", available: true, result: Result{Type: config.MemoryTypeErrorFix, Confidence: 0.3}}
	c := New(testCfg(), []Provider{p})
	out := c.Classify(context.Background(), "this is a long enough message describing something that happened during debugging", config.CollectionCodePatterns, config.MemoryTypeImplementation)
	assert.False(t, out.WasReclassified)
}

func TestClassify_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	p := &fakeProvider{name: "p", available: true, err: errors.New("boom")}
	cfg := testCfg()
	c := New(cfg, []Provider{p})
	content := "this is a long enough message describing something that happened during debugging"

	c.Classify(context.Background(), content, config.CollectionCodePatterns, config.MemoryTypeImplementation)
	c.Classify(context.Background(), content, config.CollectionCodePatterns, config.MemoryTypeImplementation)
	callsAfterTrip := p.calls
	c.Classify(context.Background(), content, config.CollectionCodePatterns, config.MemoryTypeImplementation)
	assert.Equal(t, callsAfterTrip, p.calls, "circuit should be open and skip calling the provider")
}

func TestClassify_AllProvidersFailedKeepsOriginal(t *testing.T) {
	p := &fakeProvider{name: "p", available: false}
	c := New(testCfg(), []Provider{p})
	out := c.Classify(context.Background(), "this is a long enough message describing something that happened during debugging", config.CollectionCodePatterns, config.MemoryTypeImplementation)
	assert.False(t, out.WasReclassified)
	assert.Equal(t, config.MemoryTypeImplementation, out.Type)
}
