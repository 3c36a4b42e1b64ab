// Package rest provides a JSON-focused REST client built on httpclient.
//
//	client, err := rest.New(httpclient.Config{
//	    BaseURL: "https://generativelanguage.googleapis.com/v1beta",
//	    Auth:    httpclient.APIKeyAuthHeader(key, "x-goog-api-key"),
//	})
//
//	resp, err := rest.Post[GenerateResponse](ctx, client, path, body)
package rest
