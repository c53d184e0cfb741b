package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the school service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	schoolType := graphql.NewObject(graphql.ObjectConfig{
		Name: "School",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"address":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"latitude":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"longitude": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"distance":  &graphql.Field{Type: graphql.Float, Description: "Planar distance to the query point, in degrees"},
		},
	})

	schoolInputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SchoolInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"address":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"latitude":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"longitude": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	schoolArgs := graphql.FieldConfigArgument{
		"name":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"address":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"latitude":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"longitude": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"schools": &graphql.Field{
				Type:        graphql.NewList(schoolType),
				Description: "All schools, nearest to the given point first",
				Args: graphql.FieldConfigArgument{
					"latitude":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"longitude": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin := domain.GeoPoint{
						Lat: p.Args["latitude"].(float64),
						Lon: p.Args["longitude"].(float64),
					}
					ranked, err := deps.Schools.ListByProximity(p.Context, origin)
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(ranked))
					for _, r := range ranked {
						m := schoolMap(r.School)
						m["distance"] = r.Distance
						result = append(result, m)
					}
					return result, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addSchool": &graphql.Field{
				Type:        schoolType,
				Description: "Validate and store one school",
				Args:        schoolArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := schoolInputFromArgs(p.Args)
					id, err := deps.Schools.AddInput(p.Context, in)
					if err != nil {
						return nil, err
					}
					return schoolMap(domain.School{
						ID:        id,
						Name:      in.Name,
						Address:   in.Address,
						Latitude:  in.Latitude,
						Longitude: in.Longitude,
					}), nil
				},
			},
			"addSchools": &graphql.Field{
				Type:        graphql.Int,
				Description: "Validate and store a batch of schools; returns how many were stored",
				Args: graphql.FieldConfigArgument{
					"schools": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(schoolInputType))),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					items, _ := p.Args["schools"].([]interface{})
					inputs := make([]domain.SchoolInput, 0, len(items))
					for _, item := range items {
						args, _ := item.(map[string]interface{})
						inputs = append(inputs, schoolInputFromArgs(args))
					}
					return deps.Schools.AddInputs(p.Context, inputs)
				},
			},
			"deleteAllSchools": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Remove every school",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Schools.DeleteAll(p.Context); err != nil {
						return nil, err
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func schoolInputFromArgs(args map[string]interface{}) domain.SchoolInput {
	var in domain.SchoolInput
	in.Name, _ = args["name"].(string)
	in.Address, _ = args["address"].(string)
	in.Latitude, _ = args["latitude"].(float64)
	in.Longitude, _ = args["longitude"].(float64)
	return in
}

func schoolMap(s domain.School) map[string]interface{} {
	return map[string]interface{}{
		"id":        s.ID,
		"name":      s.Name,
		"address":   s.Address,
		"latitude":  s.Latitude,
		"longitude": s.Longitude,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// Programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
