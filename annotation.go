// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pinpoint

import "github.com/pinpoint-apm/pinpoint-go-agent/internal/annotation"

// Annotation is the public alias of the typed key/value bag attached to
// spans and span events via GetAnnotations.
type Annotation = annotation.Annotation
