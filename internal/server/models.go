package server

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// IDResponse is a generic id response wrapper.
type IDResponse struct {
	ID string `json:"id"`
}

// StartCustomRequest shapes a user-defined investigation. Agents may be
// empty; no validation is applied to the payload.
type StartCustomRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Agents      []string `json:"agents"`
}

// StartResponse reports the started investigation and which agent, if any,
// was launched alongside it.
type StartResponse struct {
	ID             string `json:"id"`
	LaunchedAgent  string `json:"launched_agent,omitempty"`
	AgentsAttached int    `json:"agents_attached"`
}

// StepRequest moves the guided-procedure cursor.
type StepRequest struct {
	Step int `json:"step"`
}

// MergedResponse reports how many feed entries were applied.
type MergedResponse struct {
	Merged int `json:"merged"`
}

// TemplateView is a template plus its availability against the current
// agent directory.
type TemplateView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiredAgents []string `json:"required_agents"`
	Urgency        string   `json:"urgency"`
	Available      bool     `json:"available"`
	MatchedAgents  []string `json:"matched_agents"`
}
