package strategy

import (
	"context"
	"fmt"

	"github.com/Shadownc/favicon-api/internal/favicon"
)

type specialDomainStrategy struct {
	rules  map[string]favicon.Rule
	getter Getter
}

// NewSpecialDomainStrategy serves domains with a configured override URL.
// Rules are keyed by their already-normalized Domain.
func NewSpecialDomainStrategy(rules []favicon.Rule, getter Getter) Strategy {
	byDomain := make(map[string]favicon.Rule, len(rules))
	for _, r := range rules {
		byDomain[r.Domain] = r
	}

	return &specialDomainStrategy{
		rules:  byDomain,
		getter: getter,
	}
}

func (s *specialDomainStrategy) Name() string {
	return "special-domain"
}

func (s *specialDomainStrategy) Find(ctx context.Context, domain string) (favicon.Result, error) {
	rule, ok := s.rules[domain]
	if !ok {
		return favicon.Result{}, ErrNotApplicable
	}

	res, err := fetchIcon(ctx, s.getter, rule.URL, rule.Timeout)
	if err != nil {
		return favicon.Result{}, fmt.Errorf("override for %s: %w", domain, err)
	}

	return res, nil
}
