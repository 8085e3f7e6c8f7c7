package main

import (
	"compress/gzip"
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/searchktools/json-server/core/compress"
	"github.com/searchktools/json-server/core/http"
	"github.com/searchktools/json-server/core/router"
)

func registerRoutes(routes *router.Table) {
	routes.Register("/api/echo", router.Func(echo))
	routes.Register("/api/def", router.Func(describe))
	routes.Register("/api/gzip", gzipPayload)
}

// echo returns the request body unchanged.
func echo(args http.Args) http.Result {
	return http.OK(args.Body)
}

// describe reports the method and body it was called with.
func describe(args http.Args) http.Result {
	return http.OK(structpb.NewStructValue(&structpb.Struct{
		Fields: map[string]*structpb.Value{
			"method": structpb.NewStringValue(args.Method.String()),
			"body":   args.Body,
		},
	}))
}

// gzipPayload compresses the "data" string of the body, at the optional
// "level", and returns the compressed bytes base64 encoded with both sizes.
func gzipPayload(args http.Args) (http.Result, error) {
	fields := args.Body.GetStructValue().GetFields()

	data, ok := fields["data"].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return http.Text(`field "data" must be a string`, http.StatusBadRequest), nil
	}

	level := gzip.DefaultCompression
	if v, ok := fields["level"].GetKind().(*structpb.Value_NumberValue); ok {
		level = int(v.NumberValue)
	}

	packed, err := compress.GzipCompress([]byte(data.StringValue), level)
	if err != nil {
		return http.Result{}, fmt.Errorf("compress payload: %w", err)
	}

	return http.NewResult(structpb.NewStructValue(&structpb.Struct{
		Fields: map[string]*structpb.Value{
			"original_size":   structpb.NewNumberValue(float64(len(data.StringValue))),
			"compressed_size": structpb.NewNumberValue(float64(len(packed))),
			"data":            structpb.NewStringValue(base64.StdEncoding.EncodeToString(packed)),
		},
	}), http.StatusOK), nil
}
