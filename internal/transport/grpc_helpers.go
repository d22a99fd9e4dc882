// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package transport

import (
	"context"

	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/metadata"
)

const connectivityReady = connectivity.Ready

func metadataContext(parent context.Context, pairs ...string) context.Context {
	return metadata.AppendToOutgoingContext(parent, pairs...)
}
