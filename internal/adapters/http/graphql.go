package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/voltroute/voltroute/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	connectorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Connector",
		Fields: graphql.Fields{
			"type":      &graphql.Field{Type: graphql.String},
			"power_kw":  &graphql.Field{Type: graphql.Float},
			"available": &graphql.Field{Type: graphql.Int},
		},
	})

	chargerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Charger",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"provider_id":  &graphql.Field{Type: graphql.String},
			"name":         &graphql.Field{Type: graphql.String},
			"operator":     &graphql.Field{Type: graphql.String},
			"address":      &graphql.Field{Type: graphql.String},
			"position":     &graphql.Field{Type: geoPointType},
			"power_kw":     &graphql.Field{Type: graphql.Float},
			"rating":       &graphql.Field{Type: graphql.Float},
			"availability": &graphql.Field{Type: graphql.String},
			"connectors":   &graphql.Field{Type: graphql.NewList(connectorType)},
		},
	})

	clusterNodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClusterNode",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"cluster": &graphql.Field{Type: graphql.Boolean},
			"count":   &graphql.Field{Type: graphql.Int},
			"center":  &graphql.Field{Type: geoPointType},
			"members": &graphql.Field{Type: graphql.NewList(chargerType)},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlannedRoute",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"waypoints":      &graphql.Field{Type: graphql.NewList(geoPointType)},
			"charging_stops": &graphql.Field{Type: graphql.NewList(chargerType)},
			"profile":        &graphql.Field{Type: graphql.String},
			"distance_km":    &graphql.Field{Type: graphql.Float},
			"degraded":       &graphql.Field{Type: graphql.Boolean},
		},
	})

	suggestionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Suggestion",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.String},
			"name": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"chargersNearby": &graphql.Field{
				Type:        graphql.NewList(chargerType),
				Description: "Find charging stations near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5000},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(int)
					point := domain.GeoPoint{Lat: lat, Lon: lon}
					return deps.Chargers.FindNearby(p.Context, point, radius, domain.SearchFilters{})
				},
			},
			"chargerClusters": &graphql.Field{
				Type:        graphql.NewList(clusterNodeType),
				Description: "Zoom-aware charger clusters for map rendering",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"zoom":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5000},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					zoom := p.Args["zoom"].(float64)
					radius := p.Args["radius"].(int)
					point := domain.GeoPoint{Lat: lat, Lon: lon}
					return deps.Chargers.FindClusters(p.Context, point, radius, zoom, 0, domain.SearchFilters{})
				},
			},
			"plan": &graphql.Field{
				Type:        planType,
				Description: "Get a stored route plan by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Plans.GetPlan(p.Context, id)
				},
			},
			"recentPlans": &graphql.Field{
				Type:        graphql.NewList(planType),
				Description: "Recently computed route plans, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					return deps.Plans.ListRecent(p.Context, limit)
				},
			},
			"suggest": &graphql.Field{
				Type:        graphql.NewList(suggestionType),
				Description: "Place autocomplete suggestions",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					return deps.Geocode.Suggest(p.Context, q)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
