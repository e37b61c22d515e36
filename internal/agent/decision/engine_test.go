package decision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/reasoning"
)

func testPromptCfg() *model.PromptConfig {
	return &model.PromptConfig{BusinessName: "Acme Fitness", BusinessType: "gym"}
}

func TestEngineDecide(t *testing.T) {
	var captured reasoning.PromptContext
	gen := reasoning.GenerateFunc(func(_ context.Context, pc reasoning.PromptContext) (string, error) {
		captured = pc
		return "DECISION: RETRIEVE\nCONFIDENCE: 0.85\nREASONING: pricing question\nTOOLS_NEEDED: none\nRETRIEVAL_NEEDED: true\n", nil
	})
	e := NewEngine(gen, testPromptCfg(), []string{"schedule_meeting", "update_crm"})

	cyc := model.NewCycle("t1", model.InboundEvent{LeadKey: "lead@x.com", Message: "how much is a membership?"})
	cyc.Lead = &model.Lead{Key: "lead@x.com", Name: "Sam", Status: model.StatusNew}
	cyc.RecentTurns = []model.Turn{
		{Role: model.RoleUser, Message: "hi"},
		{Role: model.RoleAgent, Message: "hello! how can I help?"},
	}
	cyc.RecalledTurns = []model.Turn{
		{Role: model.RoleUser, Message: "I asked about student discounts last month"},
	}

	d := e.Decide(context.Background(), cyc)

	assert.Equal(t, model.KindRetrieve, d.Kind)
	assert.InDelta(t, 0.85, d.Confidence, 1e-9)
	assert.True(t, d.RetrievalNeeded)

	// the prompt carries the business identity, tool catalogue, history and message
	assert.Contains(t, captured.System, "Acme Fitness")
	assert.Contains(t, captured.System, "schedule_meeting, update_crm")
	assert.Contains(t, captured.User, "Sam")
	assert.Contains(t, captured.User, "hello! how can I help?")
	assert.Contains(t, captured.User, "student discounts")
	assert.Contains(t, captured.User, "how much is a membership?")
}

func TestEngineDecideHistoryWindow(t *testing.T) {
	var captured reasoning.PromptContext
	gen := reasoning.GenerateFunc(func(_ context.Context, pc reasoning.PromptContext) (string, error) {
		captured = pc
		return "DECISION: REASON_ONLY\nCONFIDENCE: 0.9\nREASONING: ok\n", nil
	})
	e := NewEngine(gen, testPromptCfg(), nil)

	cyc := model.NewCycle("t2", model.InboundEvent{LeadKey: "a@b.c", Message: "thanks"})
	for i := 0; i < 10; i++ {
		cyc.RecentTurns = append(cyc.RecentTurns, model.Turn{Role: model.RoleUser, Message: fmt.Sprintf("turn%d", i)})
	}

	e.Decide(context.Background(), cyc)

	// only the last five turns make it into the prompt
	assert.NotContains(t, captured.User, "turn4")
	assert.Contains(t, captured.User, "turn5")
	assert.Contains(t, captured.User, "turn9")
}

func TestEngineDecideGeneratorFailure(t *testing.T) {
	gen := reasoning.GenerateFunc(func(context.Context, reasoning.PromptContext) (string, error) {
		return "", errors.New("model unavailable")
	})
	e := NewEngine(gen, testPromptCfg(), nil)

	cyc := model.NewCycle("t3", model.InboundEvent{LeadKey: "a@b.c", Message: "hello"})
	d := e.Decide(context.Background(), cyc)

	require.Equal(t, model.KindEscalate, d.Kind)
	assert.Equal(t, 0.0, d.Confidence)
	assert.Equal(t, model.ReasonInternalError, d.EscalationReason)
}

func TestEngineDecideGarbageOutputEscalates(t *testing.T) {
	gen := reasoning.GenerateFunc(func(context.Context, reasoning.PromptContext) (string, error) {
		return "I would recommend checking our website!", nil
	})
	e := NewEngine(gen, testPromptCfg(), nil)

	cyc := model.NewCycle("t4", model.InboundEvent{LeadKey: "a@b.c", Message: "hello"})
	d := e.Decide(context.Background(), cyc)

	assert.Equal(t, model.KindEscalate, d.Kind)
	assert.Equal(t, 0.0, d.Confidence)
	assert.Equal(t, model.ReasonInternalError, d.EscalationReason)
}
