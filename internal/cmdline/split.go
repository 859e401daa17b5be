// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file splits a command line around its JSON filters so the document can
// be run through the same filter chain, stage by stage, as the real build.
package cmdline

// Segment is a run of pandoc arguments, optionally ended by a filter.
type Segment struct {
	// Args are the pandoc arguments of this segment.
	Args []string
	// Filter is the filter that follows Args; empty for the last segment.
	Filter string
}

// Plan is a command line split around its filters.
type Plan struct {
	// From holds the input format tokens; they only apply to the first stage.
	From []string
	// Segments are in command-line order. The last segment never has a filter.
	Segments []Segment
}

// Filters returns the filters of the plan in order.
func (p Plan) Filters() []string {
	var filters []string
	for _, s := range p.Segments {
		if s.Filter != "" {
			filters = append(filters, s.Filter)
		}
	}
	return filters
}

// Split prepares args, the pandoc arguments without the program name, for
// staged execution. The output flag, every --to and every --data-dir are
// dropped (the caller passes the data directory to each stage), --from is
// pulled out for the first stage, tokens naming one of sources are dropped,
// and the remaining arguments are cut at every -F/--filter.
func Split(args []string, sources []string) Plan {
	isSource := make(map[string]bool, len(sources))
	for _, s := range sources {
		isSource[s] = true
	}

	var plan Plan
	current := Segment{}
	args = StripOutput(args)

	for i := 0; i < len(args); i++ {
		tok := args[i]

		if tok == "--" {
			// Only positional arguments follow.
			break
		}

		if _, inline, ok := toFlag.match(tok); ok {
			if !inline {
				i++
			}
			continue
		}

		if _, inline, ok := dataDirFlag.match(tok); ok {
			if !inline {
				i++
			}
			continue
		}

		if _, inline, ok := fromFlag.match(tok); ok {
			plan.From = append(plan.From, tok)
			if !inline && i+1 < len(args) {
				i++
				plan.From = append(plan.From, args[i])
			}
			continue
		}

		if value, inline, ok := filterFlag.match(tok); ok {
			if !inline {
				if i+1 >= len(args) {
					break
				}
				i++
				value = args[i]
			}
			current.Filter = value
			plan.Segments = append(plan.Segments, current)
			current = Segment{}
			continue
		}

		if isSource[tok] {
			continue
		}
		current.Args = append(current.Args, tok)
	}

	plan.Segments = append(plan.Segments, current)
	return plan
}
