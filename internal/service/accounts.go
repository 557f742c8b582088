package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/cashledger/internal/database/repository"
	"github.com/jask/cashledger/internal/ledger"
)

// maxSuggestDistance bounds how far a typo may be from a real account id.
const maxSuggestDistance = 3

// requireAccount loads id or returns an UnknownAccountError naming the
// closest registered account.
func requireAccount(ctx context.Context, accounts *repository.AccountRepo, id string) (ledger.Account, error) {
	acct, err := accounts.Get(ctx, id)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("load account %s: %w", id, err)
	}
	if acct != nil {
		return *acct, nil
	}
	all, err := accounts.List(ctx)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("list accounts: %w", err)
	}
	return ledger.Account{}, &ledger.UnknownAccountError{AccountID: id, Suggestion: suggestAccount(id, all)}
}

func suggestAccount(id string, all []ledger.Account) string {
	best, bestDist := "", maxSuggestDistance+1
	needle := strings.ToUpper(strings.TrimSpace(id))
	for _, a := range all {
		d := levenshtein.ComputeDistance(needle, strings.ToUpper(a.ID))
		if d < bestDist {
			best, bestDist = a.ID, d
		}
	}
	return best
}
