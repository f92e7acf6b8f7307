package types

// ParamLocation is where a parameter is carried on the wire.
type ParamLocation string

const (
	InPath   ParamLocation = "path"
	InQuery  ParamLocation = "query"
	InHeader ParamLocation = "header"
	InCookie ParamLocation = "cookie"
)

// ParameterIR is one declared parameter, keyed by (location, name).
type ParameterIR struct {
	Name        string        `json:"name"`
	Location    ParamLocation `json:"location"`
	Required    bool          `json:"required"`
	Schema      string        `json:"schema"`
	Description string        `json:"description,omitempty"`
	Default     string        `json:"default,omitempty"`
	Enum        []string      `json:"enum,omitempty"`
}

// RequestBodyIR summarizes an operation's request body.
type RequestBodyIR struct {
	Required     bool     `json:"required"`
	Schema       string   `json:"schema"`
	ContentTypes []string `json:"content_types,omitempty"`
}

// ResponseIR summarizes one declared response.
type ResponseIR struct {
	Status       string   `json:"status"`
	Description  string   `json:"description,omitempty"`
	Schema       string   `json:"schema,omitempty"`
	ContentTypes []string `json:"content_types,omitempty"`
}

// SchemeRequirement is one (scheme, scopes) pair inside a requirement set.
type SchemeRequirement struct {
	Scheme string   `json:"scheme"`
	Scopes []string `json:"scopes,omitempty"`
}

// SecurityRequirementSetIR is one alternative way of authorizing an
// operation: every scheme in the set must be satisfied together.
type SecurityRequirementSetIR struct {
	Schemes []SchemeRequirement `json:"schemes"`
}

// OperationAuthIR is the resolved security requirement for one operation.
// A nil *OperationAuthIR on the operation means no requirement applies at
// all, which is distinct from Optional (an explicit empty alternative).
type OperationAuthIR struct {
	Inherited    bool                       `json:"inherited"`
	Optional     bool                       `json:"optional"`
	Requirements []SecurityRequirementSetIR `json:"requirements,omitempty"`
}

// SchemeNames returns the distinct scheme names across all requirement
// sets, in first-seen order.
func (a *OperationAuthIR) SchemeNames() []string {
	if a == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, set := range a.Requirements {
		for _, req := range set.Schemes {
			if _, ok := seen[req.Scheme]; ok {
				continue
			}
			seen[req.Scheme] = struct{}{}
			names = append(names, req.Scheme)
		}
	}
	return names
}

// OperationIR is one compiled API operation.
type OperationIR struct {
	ID          string           `json:"id"`
	Method      string           `json:"method"`
	Path        string           `json:"path"`
	Summary     string           `json:"summary,omitempty"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Deprecated  bool             `json:"deprecated,omitempty"`
	Parameters  []ParameterIR    `json:"parameters,omitempty"`
	RequestBody *RequestBodyIR   `json:"request_body,omitempty"`
	Responses   []ResponseIR     `json:"responses,omitempty"`
	Auth        *OperationAuthIR `json:"auth,omitempty"`
}

// SecuritySchemeType tags the scheme variant.
type SecuritySchemeType string

const (
	SchemeAPIKey        SecuritySchemeType = "api_key"
	SchemeHTTP          SecuritySchemeType = "http"
	SchemeOAuth2        SecuritySchemeType = "oauth2"
	SchemeOpenIDConnect SecuritySchemeType = "open_id_connect"
	SchemeMutualTLS     SecuritySchemeType = "mutual_tls"
	SchemeUnknown       SecuritySchemeType = "unknown"
)

// APIKeySchemeIR carries api-key specific fields.
type APIKeySchemeIR struct {
	In        ParamLocation `json:"in"`
	ParamName string        `json:"param_name"`
}

// HTTPSchemeIR carries http-auth specific fields.
type HTTPSchemeIR struct {
	Scheme       string `json:"scheme"`
	BearerFormat string `json:"bearer_format,omitempty"`
}

// SecurityFlowIR is one oauth2 flow.
type SecurityFlowIR struct {
	Type             string            `json:"type"`
	AuthorizationURL string            `json:"authorization_url,omitempty"`
	TokenURL         string            `json:"token_url,omitempty"`
	RefreshURL       string            `json:"refresh_url,omitempty"`
	Scopes           map[string]string `json:"scopes,omitempty"`
}

// OAuth2SchemeIR carries oauth2 specific fields.
type OAuth2SchemeIR struct {
	Flows []SecurityFlowIR `json:"flows,omitempty"`
}

// OpenIDConnectSchemeIR carries open-id-connect specific fields.
type OpenIDConnectSchemeIR struct {
	DiscoveryURL string `json:"discovery_url,omitempty"`
}

// SecuritySchemeIR is a named scheme. Exactly the variant matching Type is
// non-nil; the others stay nil.
type SecuritySchemeIR struct {
	Name          string                 `json:"name"`
	Type          SecuritySchemeType     `json:"type"`
	Description   string                 `json:"description,omitempty"`
	APIKey        *APIKeySchemeIR        `json:"api_key,omitempty"`
	HTTP          *HTTPSchemeIR          `json:"http,omitempty"`
	OAuth2        *OAuth2SchemeIR        `json:"oauth2,omitempty"`
	OpenIDConnect *OpenIDConnectSchemeIR `json:"open_id_connect,omitempty"`
}

// SchemaDef is one named schema definition: a rendered summary for
// prompting plus the names it references, extracted at compile time so the
// closure engine can walk the reference graph without the source document.
type SchemaDef struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Refs    []string `json:"refs,omitempty"`
}

// SpecIR is the compiled, immutable representation of one API description.
type SpecIR struct {
	Title           string                      `json:"title"`
	Version         string                      `json:"version"`
	Servers         []string                    `json:"servers,omitempty"`
	SecuritySchemes map[string]SecuritySchemeIR `json:"security_schemes,omitempty"`
	Operations      []OperationIR               `json:"operations"`
	Schemas         map[string]SchemaDef        `json:"schemas,omitempty"`
}

// Segment is a named, self-contained subset of a SpecIR.
type Segment struct {
	Key        string               `json:"key"`
	Title      string               `json:"title"`
	Slug       string               `json:"slug"`
	FilePath   string               `json:"file_path"`
	Operations []OperationIR        `json:"operations"`
	Schemas    map[string]SchemaDef `json:"schemas,omitempty"`
}

// OperationIDs returns the ids of the segment's operations in order.
func (s Segment) OperationIDs() []string {
	ids := make([]string, 0, len(s.Operations))
	for _, op := range s.Operations {
		ids = append(ids, op.ID)
	}
	return ids
}
