package feasibility

import (
	"math"

	"github.com/Sumatoshi-tech/prfang/pkg/changegraph"
	"github.com/Sumatoshi-tech/prfang/pkg/partition"
)

// riskScale is the upper bound of the risk score range.
const riskScale = 100

// RuleResult is the outcome of a single rule on a single group.
type RuleResult struct {
	Rule   string `json:"rule"`
	Passed bool   `json:"passed"`
	Fatal  bool   `json:"fatal"`
	Reason string `json:"reason,omitempty"`
}

// GroupResult collects all rule outcomes for one group. It is attached to a
// group and never shared.
type GroupResult struct {
	// GroupIndex is the group's position in the validated partition.
	GroupIndex int `json:"group_index"`
	// Files echoes the group's member paths.
	Files []string `json:"files"`
	// Rules holds one entry per enabled rule; failures are collected, not
	// short-circuited.
	Rules []RuleResult `json:"rules"`
	// Feasible is false when any fatal rule failed. Infeasible groups are
	// still returned with their violations, never dropped.
	Feasible bool `json:"feasible"`
	// Risk is the weighted failure score: 0 with no failures, 100 when
	// every enabled rule failed.
	Risk int `json:"risk"`
	// Violations lists the reasons of all failed rules.
	Violations []string `json:"violations,omitempty"`
}

// Validate applies every enabled rule to every group of the partition
// independently. The result depends only on the partition, graph, and rule
// config, so re-running with unchanged inputs yields identical results.
func Validate(p *partition.Partition, graph *changegraph.Graph, rules Rules) []GroupResult {
	enabled := EnabledRules(rules)
	assignment := groupAssignment(p)

	totalSeverity := 0
	for _, r := range enabled {
		totalSeverity += r.Severity()
	}

	results := make([]GroupResult, 0, len(p.Groups))

	for i, group := range p.Groups {
		gr := GroupResult{
			GroupIndex: i,
			Files:      group.Files,
			Feasible:   true,
		}

		failedSeverity := 0

		for _, rule := range enabled {
			passed, reason := rule.Check(group, graph, assignment, rules)

			gr.Rules = append(gr.Rules, RuleResult{
				Rule:   rule.Name(),
				Passed: passed,
				Fatal:  rule.Fatal(),
				Reason: reason,
			})

			if passed {
				continue
			}

			failedSeverity += rule.Severity()
			gr.Violations = append(gr.Violations, reason)

			if rule.Fatal() {
				gr.Feasible = false
			}
		}

		if totalSeverity > 0 {
			gr.Risk = int(math.Round(riskScale * float64(failedSeverity) / float64(totalSeverity)))
		}

		results = append(results, gr)
	}

	return results
}

// groupAssignment maps every file path to the index of its group.
func groupAssignment(p *partition.Partition) map[string]int {
	assignment := make(map[string]int)

	for i, g := range p.Groups {
		for _, f := range g.Files {
			assignment[f] = i
		}
	}

	return assignment
}
