// Package docs registers the OpenAPI document served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/predict": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["backend"],
                "summary": "Analyze text",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/model.AnalysisRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AnalysisResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/extract": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["backend"],
                "summary": "Extract text from a file",
                "parameters": [
                    {"type": "file", "description": "TXT, PDF or DOCX up to 5MB", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ExtractResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/v1/sessions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Open a session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.StartSessionResponse"}}
                }
            }
        },
        "/v1/session/submit": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Submit text for analysis",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/model.AnalysisRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/model.WorkflowView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/v1/session/result": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Report of the last analysis",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ResultView"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "model.AnalysisRequest": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "model.PHQPattern": {
            "type": "object",
            "properties": {
                "area": {"type": "string"},
                "signal": {"type": "string", "enum": ["High", "Moderate", "Low", "Not detected"]}
            }
        },
        "model.AnalysisResponse": {
            "type": "object",
            "properties": {
                "phq9_score": {"type": "integer", "minimum": 0, "maximum": 27},
                "severity": {"type": "string", "enum": ["Minimal", "Mild", "Moderate", "Moderately Severe", "Severe"]},
                "confidence": {"type": "number"},
                "interpretation": {"type": "string"},
                "suggestions": {"type": "array", "items": {"type": "string"}},
                "coping_strategies": {"type": "array", "items": {"type": "string"}},
                "professional_guidance": {"type": "string"},
                "confidence_note": {"type": "string"},
                "phq_patterns": {"type": "array", "items": {"$ref": "#/definitions/model.PHQPattern"}}
            }
        },
        "model.ExtractResponse": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "model.StartSessionResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "sessionId": {"type": "string"},
                "clientId": {"type": "string"},
                "screen": {"type": "string"}
            }
        },
        "model.WorkflowView": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "screen": {"type": "string", "enum": ["landing", "analysis", "results"]},
                "redirect": {"type": "string"},
                "hasResult": {"type": "boolean"},
                "analyzing": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "model.ResultView": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "screen": {"type": "string"},
                "redirect": {"type": "string"},
                "report": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MindfulLens API",
	Description:      "Language-pattern analysis of free-form text on the PHQ-9 scale. Supportive tool, not a diagnosis.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
