// Package docs swagger文档,由swag init生成,手工修改会被覆盖
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
        "/api/v1/users/login": {
            "post": {"tags": ["用户"], "summary": "用户登录", "responses": {"200": {"description": "登录成功"}, "401": {"description": "用户名或密码错误"}}}
        },
        "/api/v1/users/refresh": {
            "post": {"tags": ["用户"], "summary": "刷新Token", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/users/logout": {
            "post": {"tags": ["用户"], "summary": "用户登出", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/books": {
            "get": {
                "tags": ["图书"],
                "summary": "搜索图书",
                "parameters": [
                    {"type": "string", "enum": ["title", "isbn", "author", "genre", "rating"], "name": "mode", "in": "query"},
                    {"type": "string", "name": "q", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "503": {"description": "存储不可用"}}
            },
            "post": {"tags": ["图书"], "summary": "添加图书", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/books/{id}": {
            "delete": {
                "tags": ["图书"],
                "summary": "删除图书",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "图书不存在"}}
            }
        },
        "/api/v1/books/{id}/reviews": {
            "post": {
                "tags": ["图书"],
                "summary": "评分",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/authors": {
            "get": {"tags": ["作者"], "summary": "作者列表", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["作者"], "summary": "添加作者", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/genres": {
            "get": {"tags": ["类型"], "summary": "类型列表", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["类型"], "summary": "添加类型", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "booksdb API",
	Description:      "图书目录服务",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
