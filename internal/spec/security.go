package spec

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/yourorg/skillgen/pkg/types"
)

func compileSecuritySchemes(doc *openapi3.T) map[string]types.SecuritySchemeIR {
	if doc.Components == nil || len(doc.Components.SecuritySchemes) == 0 {
		return nil
	}
	out := make(map[string]types.SecuritySchemeIR, len(doc.Components.SecuritySchemes))
	for name, ref := range doc.Components.SecuritySchemes {
		if ref == nil || ref.Value == nil {
			continue
		}
		out[name] = compileScheme(name, ref.Value)
	}
	return out
}

func compileScheme(name string, ss *openapi3.SecurityScheme) types.SecuritySchemeIR {
	out := types.SecuritySchemeIR{Name: name, Description: ss.Description}
	switch ss.Type {
	case "apiKey":
		out.Type = types.SchemeAPIKey
		out.APIKey = &types.APIKeySchemeIR{
			In:        paramLocation(ss.In),
			ParamName: ss.Name,
		}
	case "http":
		out.Type = types.SchemeHTTP
		out.HTTP = &types.HTTPSchemeIR{
			Scheme:       ss.Scheme,
			BearerFormat: ss.BearerFormat,
		}
	case "oauth2":
		out.Type = types.SchemeOAuth2
		out.OAuth2 = &types.OAuth2SchemeIR{Flows: compileFlows(ss.Flows)}
	case "openIdConnect":
		out.Type = types.SchemeOpenIDConnect
		out.OpenIDConnect = &types.OpenIDConnectSchemeIR{DiscoveryURL: ss.OpenIdConnectUrl}
	case "mutualTLS":
		out.Type = types.SchemeMutualTLS
	default:
		out.Type = types.SchemeUnknown
	}
	return out
}

func compileFlows(flows *openapi3.OAuthFlows) []types.SecurityFlowIR {
	if flows == nil {
		return nil
	}
	var out []types.SecurityFlowIR
	add := func(name string, f *openapi3.OAuthFlow) {
		if f == nil {
			return
		}
		out = append(out, types.SecurityFlowIR{
			Type:             name,
			AuthorizationURL: f.AuthorizationURL,
			TokenURL:         f.TokenURL,
			RefreshURL:       f.RefreshURL,
			Scopes:           f.Scopes,
		})
	}
	add("authorization_code", flows.AuthorizationCode)
	add("client_credentials", flows.ClientCredentials)
	add("implicit", flows.Implicit)
	add("password", flows.Password)
	return out
}

// resolveAuth determines the applicable security requirement for one
// operation. A locally declared list overrides the document default; with
// neither present the operation has no auth requirement at all, which is
// distinct from an explicit empty alternative (optional auth).
func resolveAuth(doc *openapi3.T, op *openapi3.Operation) *types.OperationAuthIR {
	var alternatives openapi3.SecurityRequirements
	inherited := false
	switch {
	case op.Security != nil:
		alternatives = *op.Security
	case len(doc.Security) > 0:
		alternatives = doc.Security
		inherited = true
	default:
		return nil
	}
	if len(alternatives) == 0 {
		// declared but empty: security is explicitly disabled
		return nil
	}

	auth := &types.OperationAuthIR{Inherited: inherited}
	seen := make(map[string]struct{})
	for _, alt := range alternatives {
		if len(alt) == 0 {
			auth.Optional = true
			continue
		}
		set := buildRequirementSet(alt)
		key := requirementSetKey(set)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		auth.Requirements = append(auth.Requirements, set)
	}
	return auth
}

func buildRequirementSet(alt openapi3.SecurityRequirement) types.SecurityRequirementSetIR {
	names := make([]string, 0, len(alt))
	for name := range alt {
		names = append(names, name)
	}
	sort.Strings(names)

	set := types.SecurityRequirementSetIR{
		Schemes: make([]types.SchemeRequirement, 0, len(names)),
	}
	for _, name := range names {
		scopes := append([]string(nil), alt[name]...)
		sort.Strings(scopes)
		set.Schemes = append(set.Schemes, types.SchemeRequirement{Scheme: name, Scopes: scopes})
	}
	return set
}

func requirementSetKey(set types.SecurityRequirementSetIR) string {
	var b strings.Builder
	for _, req := range set.Schemes {
		b.WriteString(req.Scheme)
		b.WriteByte('(')
		b.WriteString(strings.Join(req.Scopes, ","))
		b.WriteString(");")
	}
	return b.String()
}
