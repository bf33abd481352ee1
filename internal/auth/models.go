package auth

// User is the locally stored account, combining backend profile data with
// the bearer token issued at login.
type User struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	Name               string  `json:"name"`
	Tier               string  `json:"tier"`
	Token              string  `json:"token"`
	Usage              Usage   `json:"usage"`
	CreatedAt          string  `json:"created_at"`
	SubscriptionStatus *string `json:"subscription_status,omitempty"`
	UpdatedAt          *string `json:"updated_at,omitempty"`
}

// Usage tracks per-account request counters as reported by the backend.
type Usage struct {
	Daily     int    `json:"daily"`
	Total     int    `json:"total"`
	LastReset string `json:"last_reset"`
}

// backendUser is the profile shape the API returns. Counters and timestamps
// are optional there; the local User fills in defaults.
type backendUser struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	Name               string  `json:"name"`
	Tier               string  `json:"tier"`
	SubscriptionStatus *string `json:"subscription_status"`
	UsageDaily         *int    `json:"usage_daily"`
	UsageTotal         *int    `json:"usage_total"`
	CreatedAt          *string `json:"created_at"`
	UpdatedAt          *string `json:"updated_at"`
}

type authResponse struct {
	Success bool         `json:"success"`
	User    *backendUser `json:"user"`
	Token   *string      `json:"token"`
	Message *string      `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Model tiers in ascending order of entitlement. Each tier includes every
// model of the tiers below it.
var tierModels = map[string][]string{
	"free": {"GPT-3.5-turbo", "Gemini Flash"},
	"premium": {
		"GPT-3.5-turbo", "Gemini Flash",
		"GPT-4o-mini", "Claude 3 Haiku", "Gemini Pro", "Jamba Mini", "Mistral Small",
	},
	"pro": {
		"GPT-3.5-turbo", "Gemini Flash",
		"GPT-4o-mini", "Claude 3 Haiku", "Gemini Pro", "Jamba Mini", "Mistral Small",
		"GPT-4o", "Claude 3.5 Sonnet", "Jamba Large", "Mistral Medium",
	},
	"enterprise": {
		"GPT-3.5-turbo", "Gemini Flash",
		"GPT-4o-mini", "Claude 3 Haiku", "Gemini Pro", "Jamba Mini", "Mistral Small",
		"GPT-4o", "Claude 3.5 Sonnet", "Jamba Large", "Mistral Medium",
		"GPT-4o 32k", "Claude 3 Opus", "Mistral Large",
	},
}

// AvailableModels returns the model names a tier may use. Unknown tiers get
// the minimal fallback set.
func AvailableModels(tier string) []string {
	if models, ok := tierModels[tier]; ok {
		return models
	}
	return []string{"GPT-3.5-turbo"}
}

// CanUseModel reports whether a tier is entitled to the given model.
func CanUseModel(tier, model string) bool {
	for _, m := range AvailableModels(tier) {
		if m == model {
			return true
		}
	}
	return false
}
