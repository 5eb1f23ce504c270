// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"strings"

	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
)

// IdentityResolver turns a free-text login identifier into an account. An
// identifier that looks like an email is matched case-insensitively against
// every kind; anything else is reduced to digits and matched against the
// document of the kind its length implies.
type IdentityResolver interface {
	Resolve(ctx context.Context, identifier string) (*models.Account, error)
}

// IdentityResolverImpl implements IdentityResolver
type IdentityResolverImpl struct {
	accountRepo repository.AccountRepository
}

// NewIdentityResolver creates a new identity resolver instance
func NewIdentityResolver(accountRepo repository.AccountRepository) IdentityResolver {
	return &IdentityResolverImpl{accountRepo: accountRepo}
}

// Resolve looks up the account the identifier denotes, or nil when nothing
// matches. Unknown digit lengths return no match rather than guessing.
func (r *IdentityResolverImpl) Resolve(ctx context.Context, identifier string) (*models.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}

	if utils.LooksLikeEmail(identifier) {
		return r.accountRepo.ByEmail(ctx, strings.ToLower(identifier))
	}

	digits := utils.StripNonDigits(identifier)
	switch utils.ClassifyDocument(digits) {
	case utils.DocumentIndividual:
		return r.accountRepo.ByCPF(ctx, digits)
	case utils.DocumentCompany:
		// Companies and providers share the 14-digit namespace; the company
		// match wins when both kinds hold the same document.
		account, err := r.accountRepo.ByCNPJ(ctx, models.AccountTypeCompany, digits)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
		return r.accountRepo.ByCNPJ(ctx, models.AccountTypeProvider, digits)
	default:
		return nil, nil
	}
}
