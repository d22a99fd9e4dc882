// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package span

import "github.com/pinpoint-apm/pinpoint-go-agent/internal/util"

// newSpanID mints a signed, non-zero 63-bit span id.
func newSpanID() int64 {
	return util.GenerateSpanID()
}
