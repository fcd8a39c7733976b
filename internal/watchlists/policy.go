package watchlists

import (
	"fmt"
	"strings"

	"github.com/reelroom/backend/internal/models"
)

// MediaIdentity selects which fields make two media references "the same"
// when rejecting duplicate adds.
type MediaIdentity string

const (
	// MatchIDAndType treats movie 550 and series 550 as different titles.
	MatchIDAndType MediaIdentity = "id_type"
	// MatchID rejects a second entry with the same id regardless of type.
	MatchID MediaIdentity = "id"
)

// MissingUserPolicy decides how reads treat an owner with no record.
type MissingUserPolicy string

const (
	// MissingUserError surfaces ErrUserNotFound.
	MissingUserError MissingUserPolicy = "error"
	// MissingUserEmpty treats the owner as having no watchlists.
	MissingUserEmpty MissingUserPolicy = "empty"
)

// Policy groups the behaviours that differ between deployments.
type Policy struct {
	MediaIdentity MediaIdentity
	MissingUser   MissingUserPolicy
}

// DefaultPolicy matches on (id, type) and reports unknown owners as errors.
func DefaultPolicy() Policy {
	return Policy{MediaIdentity: MatchIDAndType, MissingUser: MissingUserError}
}

// ParsePolicy builds a Policy from configuration strings. Empty values fall
// back to the defaults.
func ParsePolicy(identity, missingUser string) (Policy, error) {
	policy := DefaultPolicy()

	switch MediaIdentity(strings.ToLower(strings.TrimSpace(identity))) {
	case "":
	case MatchIDAndType:
		policy.MediaIdentity = MatchIDAndType
	case MatchID:
		policy.MediaIdentity = MatchID
	default:
		return Policy{}, fmt.Errorf("unknown media identity %q", identity)
	}

	switch MissingUserPolicy(strings.ToLower(strings.TrimSpace(missingUser))) {
	case "":
	case MissingUserError:
		policy.MissingUser = MissingUserError
	case MissingUserEmpty:
		policy.MissingUser = MissingUserEmpty
	default:
		return Policy{}, fmt.Errorf("unknown missing user policy %q", missingUser)
	}

	return policy, nil
}

func (p Policy) sameMedia(a, b models.MediaRef) bool {
	if p.MediaIdentity == MatchID {
		return a.ID == b.ID
	}
	return a.ID == b.ID && a.Type == b.Type
}
