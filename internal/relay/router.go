package relay

import "fmt"

// Rule routes messages from a set of input channels to one output channel.
type Rule struct {
	Key          string
	InputIDs     []string
	OutputID     string
	NotifyRoleID string // role to mention on relay, empty for none
}

// Router resolves an origin channel to its routing rule.
type Router struct {
	byInput map[string]*Rule
}

// NewRouter builds the channel index. A channel appearing in the input set
// of more than one rule is a configuration error, as is a rule without an
// output channel.
func NewRouter(rules []Rule) (*Router, error) {
	byInput := make(map[string]*Rule)
	for i := range rules {
		rule := &rules[i]
		if rule.OutputID == "" {
			return nil, fmt.Errorf("route %q has no output channel", rule.Key)
		}
		if len(rule.InputIDs) == 0 {
			return nil, fmt.Errorf("route %q has no input channels", rule.Key)
		}
		for _, in := range rule.InputIDs {
			if prev, ok := byInput[in]; ok {
				return nil, fmt.Errorf("channel %s appears in routes %q and %q", in, prev.Key, rule.Key)
			}
			byInput[in] = rule
		}
	}
	return &Router{byInput: byInput}, nil
}

// Route returns the rule for an origin channel. The second return value is
// false when no rule matches; the caller drops the message silently.
func (r *Router) Route(channelID string) (*Rule, bool) {
	rule, ok := r.byInput[channelID]
	return rule, ok
}
