package rest

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"
)

// NewOpenAPI3 instantiates the OpenAPI specification for this service.
func NewOpenAPI3() openapi3.T {
	swagger := openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "Task API",
			Description: "REST API managing tasks behind JWT authentication",
			Version:     "1.0.0",
			Contact: &openapi3.Contact{
				URL: "https://github.com/plefebvre/task-api",
			},
		},
		Servers: openapi3.Servers{
			&openapi3.Server{
				Description: "Local development",
				URL:         "http://127.0.0.1:9234",
			},
		},
	}

	swagger.Components.Schemas = openapi3.Schemas{
		"Task": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("id", openapi3.NewInt64Schema()).
				WithProperty("title", openapi3.NewStringSchema()).
				WithProperty("description", openapi3.NewStringSchema().WithNullable()).
				WithProperty("status", openapi3.NewStringSchema().
					WithEnum("pending", "in_progress", "completed")).
				WithProperty("createdAt", openapi3.NewStringSchema().WithFormat("date-time")).
				WithProperty("updatedAt", openapi3.NewStringSchema().WithFormat("date-time").WithNullable()).
				WithProperty("dueDate", openapi3.NewStringSchema().WithFormat("date").WithNullable())),
		"User": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("id", openapi3.NewInt64Schema()).
				WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
				WithProperty("roles", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
				WithProperty("firstname", openapi3.NewStringSchema().WithNullable()).
				WithProperty("lastname", openapi3.NewStringSchema().WithNullable()).
				WithProperty("createdAt", openapi3.NewStringSchema().WithFormat("date-time"))),
		"TokenPair": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("token", openapi3.NewStringSchema()).
				WithProperty("refreshToken", openapi3.NewStringSchema()).
				WithProperty("expiresAt", openapi3.NewInt64Schema())),
		"Stats": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("total", openapi3.NewInt64Schema()).
				WithProperty("byStatus", openapi3.NewObjectSchema().
					WithAnyAdditionalProperties())),
	}

	swagger.Components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: openapi3.NewJWTSecurityScheme(),
		},
	}

	swagger.Components.RequestBodies = openapi3.RequestBodies{
		"CreateTaskRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for creating a task.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewObjectSchema().
					WithProperty("title", openapi3.NewStringSchema().WithMinLength(1)).
					WithProperty("description", openapi3.NewStringSchema().WithNullable()).
					WithProperty("status", openapi3.NewStringSchema().
						WithEnum("pending", "in_progress", "completed")).
					WithProperty("dueDate", openapi3.NewStringSchema().WithFormat("date").WithNullable())),
		},
		"UpdateTaskRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for partially updating a task.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewObjectSchema().
					WithProperty("title", openapi3.NewStringSchema().WithMinLength(1)).
					WithProperty("description", openapi3.NewStringSchema().WithNullable()).
					WithProperty("status", openapi3.NewStringSchema().
						WithEnum("pending", "in_progress", "completed")).
					WithProperty("dueDate", openapi3.NewStringSchema().WithFormat("date").WithNullable())),
		},
		"RegisterRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for creating an account.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewObjectSchema().
					WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
					WithProperty("password", openapi3.NewStringSchema().WithMinLength(8)).
					WithProperty("firstname", openapi3.NewStringSchema().WithNullable()).
					WithProperty("lastname", openapi3.NewStringSchema().WithNullable())),
		},
		"LoginRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for authenticating.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewObjectSchema().
					WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
					WithProperty("password", openapi3.NewStringSchema())),
		},
	}

	envelopeWith := func(dataRef string) *openapi3.SchemaRef {
		return openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("success", openapi3.NewBoolSchema()).
				WithProperty("message", openapi3.NewStringSchema()).
				WithPropertyRef("data", openapi3.NewSchemaRef(dataRef, nil)))
	}

	newResponse := func(description, dataRef string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(description).
				WithContent(openapi3.NewContentWithJSONSchemaRef(envelopeWith(dataRef))),
		}
	}

	errorResponse := func(description string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(description).
				WithContent(openapi3.NewContentWithJSONSchema(
					openapi3.NewObjectSchema().
						WithProperty("success", openapi3.NewBoolSchema()).
						WithProperty("message", openapi3.NewStringSchema()))),
		}
	}

	bearer := openapi3.SecurityRequirements{
		openapi3.NewSecurityRequirement().Authenticate("bearerAuth"),
	}

	swagger.Paths = openapi3.Paths{
		"/api/register": &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "Register",
				RequestBody: &openapi3.RequestBodyRef{Ref: "#/components/requestBodies/RegisterRequest"},
				Responses: openapi3.Responses{
					"201": newResponse("Account created.", "#/components/schemas/User"),
					"400": errorResponse("Missing or invalid field."),
					"409": errorResponse("Email already registered."),
				},
			},
		},
		"/api/login": &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "Login",
				RequestBody: &openapi3.RequestBodyRef{Ref: "#/components/requestBodies/LoginRequest"},
				Responses: openapi3.Responses{
					"200": newResponse("Authenticated.", "#/components/schemas/TokenPair"),
					"401": errorResponse("Invalid credentials."),
				},
			},
		},
		"/api/refresh": &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "Refresh",
				Responses: openapi3.Responses{
					"200": newResponse("Tokens rotated.", "#/components/schemas/TokenPair"),
					"401": errorResponse("Invalid or already used refresh token."),
				},
			},
		},
		"/api/me": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "CurrentUser",
				Security:    &bearer,
				Responses: openapi3.Responses{
					"200": newResponse("Authenticated account.", "#/components/schemas/User"),
					"401": errorResponse("Missing or invalid token."),
				},
			},
		},
		"/api/tasks": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ListTasks",
				Security:    &bearer,
				Parameters: openapi3.Parameters{
					{Value: openapi3.NewQueryParameter("status").
						WithSchema(openapi3.NewStringSchema().
							WithEnum("pending", "in_progress", "completed"))},
					{Value: openapi3.NewQueryParameter("search").
						WithSchema(openapi3.NewStringSchema())},
				},
				Responses: openapi3.Responses{
					"200": newResponse("Matching tasks, most recent first.", "#/components/schemas/Task"),
				},
			},
			Post: &openapi3.Operation{
				OperationID: "CreateTask",
				Security:    &bearer,
				RequestBody: &openapi3.RequestBodyRef{Ref: "#/components/requestBodies/CreateTaskRequest"},
				Responses: openapi3.Responses{
					"201": newResponse("Task created.", "#/components/schemas/Task"),
					"400": errorResponse("Missing title or unknown status."),
				},
			},
		},
		"/api/tasks/{id}": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "GetTask",
				Security:    &bearer,
				Parameters: openapi3.Parameters{
					{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewInt64Schema())},
				},
				Responses: openapi3.Responses{
					"200": newResponse("Requested task.", "#/components/schemas/Task"),
					"404": errorResponse("Task not found."),
				},
			},
			Put: &openapi3.Operation{
				OperationID: "UpdateTask",
				Security:    &bearer,
				Parameters: openapi3.Parameters{
					{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewInt64Schema())},
				},
				RequestBody: &openapi3.RequestBodyRef{Ref: "#/components/requestBodies/UpdateTaskRequest"},
				Responses: openapi3.Responses{
					"200": newResponse("Updated task.", "#/components/schemas/Task"),
					"400": errorResponse("Unknown status or malformed field."),
					"404": errorResponse("Task not found."),
				},
			},
			Delete: &openapi3.Operation{
				OperationID: "DeleteTask",
				Security:    &bearer,
				Parameters: openapi3.Parameters{
					{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewInt64Schema())},
				},
				Responses: openapi3.Responses{
					"200": errorResponse("Task deleted."),
					"404": errorResponse("Task not found."),
				},
			},
		},
		"/api/tasks/stats": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "TaskStats",
				Security:    &bearer,
				Responses: openapi3.Responses{
					"200": newResponse("Task counts per status.", "#/components/schemas/Stats"),
				},
			},
		},
	}

	return swagger
}

// RegisterOpenAPI serves the API description in both JSON and YAML.
func RegisterOpenAPI(r chi.Router) {
	swagger := NewOpenAPI3()

	r.Get("/openapi3.json", func(w http.ResponseWriter, _ *http.Request) {
		renderResponse(w, &swagger, http.StatusOK)
	})

	r.Get("/openapi3.yaml", func(w http.ResponseWriter, _ *http.Request) {
		data, err := yaml.Marshal(&swagger)
		if err != nil {
			http.Error(w, "couldn't marshal openapi spec", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}
