package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/inboundiq/server/internal/agent/graph/nodes"
	"github.com/inboundiq/server/internal/agent/model"
	logx "github.com/inboundiq/server/pkg/logger"
)

// GraphBuilder handles the construction of the agent cycle graph.
type GraphBuilder struct {
	deps  *nodes.Deps
	graph *compose.Graph[*model.Cycle, *model.AgentResponse]
}

// BuildGraph constructs and returns the compiled cycle graph. The cycle
// record itself flows through every node; branches only read it.
func BuildGraph(ctx context.Context, deps *nodes.Deps) (compose.Runnable[*model.Cycle, *model.AgentResponse], error) {
	if deps == nil {
		return nil, fmt.Errorf("graph deps are nil")
	}
	if deps.Gateway == nil || deps.Engine == nil || deps.Retriever == nil ||
		deps.Reranker == nil || deps.Composer == nil || deps.Executor == nil ||
		deps.Escalation == nil || deps.PromptCfg == nil {
		return nil, fmt.Errorf("graph deps are not properly initialized")
	}

	builder := &GraphBuilder{
		deps:  deps,
		graph: compose.NewGraph[*model.Cycle, *model.AgentResponse](),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph.
func (b *GraphBuilder) addNodes() {
	d := b.deps
	b.graph.AddLambdaNode(nodes.NodeIntake, nodes.NewIntakeNode())
	b.graph.AddLambdaNode(nodes.NodeLoadContext, nodes.NewLoadContextNode(d))
	b.graph.AddLambdaNode(nodes.NodeDecide, nodes.NewDecideNode(d))
	b.graph.AddLambdaNode(nodes.NodeRetrieve, nodes.NewRetrieveNode(d))
	b.graph.AddLambdaNode(nodes.NodeTools, nodes.NewToolsNode(d))
	b.graph.AddLambdaNode(nodes.NodeCompose, nodes.NewComposeNode(d))
	b.graph.AddLambdaNode(nodes.NodeEscalate, nodes.NewEscalateNode(d))
	b.graph.AddLambdaNode(nodes.NodeMemory, nodes.NewMemoryNode(d))
	b.graph.AddLambdaNode(nodes.NodeFinalize, nodes.NewFinalizeNode(d))
}

// addEdges creates the unconditional flow connections between nodes.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeIntake},
		{nodes.NodeIntake, nodes.NodeLoadContext},
		{nodes.NodeEscalate, nodes.NodeMemory},
		{nodes.NodeMemory, nodes.NodeFinalize},
		{nodes.NodeFinalize, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branches.
func (b *GraphBuilder) addBranches() error {
	branches := []struct {
		from    string
		cond    func(context.Context, *model.Cycle) (string, error)
		targets map[string]bool
	}{
		{
			from: nodes.NodeLoadContext,
			cond: nodes.NewSensitiveCondition(),
			targets: map[string]bool{
				nodes.NodeEscalate: true,
				nodes.NodeDecide:   true,
			},
		},
		{
			from: nodes.NodeDecide,
			cond: nodes.NewPostDecideCondition(),
			targets: map[string]bool{
				nodes.NodeEscalate: true,
				nodes.NodeRetrieve: true,
				nodes.NodeTools:    true,
				nodes.NodeCompose:  true,
			},
		},
		{
			from: nodes.NodeRetrieve,
			cond: nodes.NewPostRetrieveCondition(),
			targets: map[string]bool{
				nodes.NodeEscalate: true,
				nodes.NodeTools:    true,
				nodes.NodeCompose:  true,
			},
		},
		{
			from: nodes.NodeTools,
			cond: nodes.NewPostToolsCondition(),
			targets: map[string]bool{
				nodes.NodeEscalate: true,
				nodes.NodeCompose:  true,
			},
		},
		{
			from: nodes.NodeCompose,
			cond: nodes.NewPostComposeCondition(),
			targets: map[string]bool{
				nodes.NodeEscalate: true,
				nodes.NodeRetrieve: true,
				nodes.NodeMemory:   true,
			},
		},
	}

	for _, br := range branches {
		if err := b.graph.AddBranch(br.from, compose.NewGraphBranch(br.cond, br.targets)); err != nil {
			logx.Error().Err(err).Str("from", br.from).Msg("Error adding branch")
			return fmt.Errorf("error adding branch from %s: %w", br.from, err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph. The step cap covers the longest
// path plus the single retrieval retry loop.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.Cycle, *model.AgentResponse], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(25))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Cycle graph compiled successfully")
	return runnable, nil
}
