package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/inboundiq/server/internal/agent/model"
)

// Tool names the decision model may request.
const (
	ToolScheduleMeeting = "schedule_meeting"
	ToolUpdateCRM       = "update_crm"
	ToolSendMessage     = "send_message"
)

// Params carries a tool invocation's inputs: who it is for and whatever the
// cycle knows that the tool might need.
type Params struct {
	LeadKey string
	Message string
	Lead    *model.Lead
	Extra   map[string]string
}

// Tool is one side-effecting action the agent can take. Invoke returns the
// outcome as data; only infrastructure faults (not business outcomes like
// "no slots free") surface as errors.
type Tool interface {
	Name() string
	// Critical tools failing after retries force an escalation; non-critical
	// ones degrade into the response text.
	Critical() bool
	Invoke(ctx context.Context, p Params) (model.ToolInvocationResult, error)
}

// Registry resolves tool names from the decision output.
type Registry struct {
	byName map[string]Tool
}

func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		r.byName[t.Name()] = t
	}
	return r
}

func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t, nil
}

// Names lists registered tool names in stable order, for prompt catalogues.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
