// Package onboarding drives tenant assignment for social logins: the
// caller's declared intent (create a company vs. join one) is parked in a
// server-side continuation record across the identity provider's redirect
// round-trip and consumed exactly once on the callback.
package onboarding

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// IntentKind classifies the onboarding goal carried through the redirect.
type IntentKind string

const (
	// IntentNone means the state string was empty or unrecognized. Accepted,
	// but no tenant assignment happens later.
	IntentNone IntentKind = "none"
	// IntentCreateCompany creates (or reuses) a company by name and makes the
	// user its COMPANY_ADMIN.
	IntentCreateCompany IntentKind = "create_company"
	// IntentJoinCompany joins an existing company by id as a COMMON_USER.
	IntentJoinCompany IntentKind = "join_company"
)

// Intent is the parsed onboarding goal.
type Intent struct {
	Kind        IntentKind `json:"kind"`
	CompanyName string     `json:"company_name,omitempty"`
	CompanyID   uuid.UUID  `json:"company_id,omitempty"`
}

// ParseIntent decodes the opaque state string sent with a social login
// request. Formats: "company_name=<url-encoded-name>" or
// "company_uuid=<company-id>". Anything else, including a malformed uuid,
// parses as IntentNone.
func ParseIntent(raw string) Intent {
	switch {
	case strings.Contains(raw, "company_name="):
		name := strings.SplitN(raw, "company_name=", 2)[1]
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return Intent{Kind: IntentNone}
		}
		return Intent{Kind: IntentCreateCompany, CompanyName: name}

	case strings.Contains(raw, "company_uuid="):
		rawID := strings.SplitN(raw, "company_uuid=", 2)[1]
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return Intent{Kind: IntentNone}
		}
		return Intent{Kind: IntentJoinCompany, CompanyID: id}

	default:
		return Intent{Kind: IntentNone}
	}
}
