// Package docs 由swag生成的API文档（swag init -g cmd/api/main.go）
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/transactions/sales": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "售出图书，库存不足时返回INSUFFICIENT_STOCK（details含current和requested）",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["交易"],
                "summary": "销售",
                "parameters": [
                    {"type": "string", "description": "幂等键", "name": "Idempotency-Key", "in": "header"},
                    {"description": "销售信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SaleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/transactions/purchases": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "向供应商进货，增加库存",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["交易"],
                "summary": "进货",
                "parameters": [
                    {"type": "string", "description": "幂等键", "name": "Idempotency-Key", "in": "header"},
                    {"description": "进货信息", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.PurchaseRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/books/{id}/recommendation": {
            "get": {
                "description": "根据过去30天销量和最低库存计算建议进货数量",
                "produces": ["application/json"],
                "tags": ["报表"],
                "summary": "进货建议",
                "parameters": [{"type": "integer", "description": "图书ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "dto.SaleRequest": {
            "type": "object",
            "properties": {
                "book_id": {"type": "integer", "example": 1},
                "quantity": {"type": "integer", "example": 2},
                "unit_price": {"type": "string", "example": "59.00"},
                "notes": {"type": "string"},
                "idempotency_key": {"type": "string"}
            }
        },
        "dto.PurchaseRequest": {
            "type": "object",
            "properties": {
                "book_id": {"type": "integer", "example": 1},
                "supplier_id": {"type": "integer", "example": 1},
                "quantity": {"type": "integer", "example": 10},
                "unit_price": {"type": "string", "example": "35.50"},
                "notes": {"type": "string"},
                "idempotency_key": {"type": "string", "example": "po-20240315-001"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "kind": {"type": "string"},
                "data": {},
                "details": {"type": "object", "additionalProperties": true}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer {token}",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "书店库存交易服务API",
	Description:      "进货、销售、退货、作废交易，报表与进货建议",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
