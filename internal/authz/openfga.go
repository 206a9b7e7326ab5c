package authz

import (
	"context"
	"fmt"

	fga "github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"

	"github.com/TwigBush/opa-authz/internal/resource"
)

// OpenFGA decides by issuing a relationship check per request:
// user:<name> <policy name> <resource kind>:<resource id>.
type OpenFGA struct {
	c *fga.OpenFgaClient
}

type OpenFGAConfig struct {
	APIURL   string
	StoreID  string
	APIToken string // optional
	ModelID  string // optional but recommended in prod
}

func NewOpenFGA(cfg OpenFGAConfig) (*OpenFGA, error) {
	conf := &fga.ClientConfiguration{
		ApiUrl:  cfg.APIURL,
		StoreId: cfg.StoreID,
	}
	if cfg.ModelID != "" {
		conf.AuthorizationModelId = cfg.ModelID
	}
	if cfg.APIToken != "" {
		conf.Credentials = &credentials.Credentials{
			Method: credentials.CredentialsMethodApiToken,
			Config: &credentials.Config{ApiToken: cfg.APIToken},
		}
	}

	client, err := fga.NewSdkClient(conf)
	if err != nil {
		return nil, fmt.Errorf("openfga_client_init: %w", err)
	}
	return &OpenFGA{c: client}, nil
}

func (o *OpenFGA) Decide(ctx context.Context, req Request) (Decision, error) {
	if err := req.Validate(); err != nil {
		return NoOpinion, err
	}
	checkReq := fga.ClientCheckRequest{
		User:     "user:" + req.Context.Identity.User,
		Relation: req.Action.Operation.PolicyName(),
		Object:   FGAObject(req.Action.Resource),
	}

	resp, err := o.c.Check(ctx).Body(checkReq).Execute()
	if err != nil {
		return NoOpinion, fmt.Errorf("fga_check_error: %w", err)
	}
	if resp.Allowed != nil && *resp.Allowed {
		return Allow, nil
	}
	return NoOpinion, nil
}

// FGAObject names res as an OpenFGA object. Checks without a resource are
// made against system:engine.
func FGAObject(res resource.Resource) string {
	switch v := res.(type) {
	case nil:
		return "system:engine"
	case resource.User:
		return "user:" + v.Name
	case resource.Query:
		return "query:" + v.Owner.User
	case resource.SystemSessionProperty:
		return "system_session_property:" + v.Property
	case resource.Catalog:
		return "catalog:" + v.Name
	case resource.Schema:
		if v.Schema == "" {
			return "catalog:" + v.Catalog
		}
		return "schema:" + v.Catalog + "." + v.Schema
	case resource.Table:
		return "table:" + v.Name().String()
	case resource.View:
		return "view:" + v.Name().String()
	case resource.Role:
		if v.Name != "" {
			return "role:" + v.Name
		}
		return "role:*"
	case resource.Execution:
		switch {
		case v.Routine != nil:
			return "routine:" + v.Routine.String()
		case v.Table != nil:
			return "table:" + v.Table.String()
		default:
			return "function:" + v.FunctionName
		}
	case resource.Authorization:
		switch {
		case v.Schema != nil:
			return "schema:" + v.Schema.String()
		case v.Table != nil:
			return "table:" + v.Table.String()
		default:
			return "function:" + v.FunctionName
		}
	default:
		return "unknown:" + resource.Kind(res)
	}
}
