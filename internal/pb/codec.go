// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package pb

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// CodecName is registered as a grpc encoding.Codec and selected per-call
// with grpc.CallContentSubtype(pb.CodecName) or grpc.ForceCodec, so the
// collector streams carry MessagePack-encoded payloads instead of the
// default protobuf codec grpc would otherwise require.
//
// The domain messages in this package (Span, AgentStat, ...) encode
// themselves with msgp; the acknowledgement replies the collector sends
// back (orig/src/grpc.cpp's google::protobuf::Empty) are the genuine,
// pre-generated google.golang.org/protobuf/types/known/emptypb.Empty
// type, so this codec falls back to real protobuf encoding for anything
// that isn't an msgp message rather than hand-fabricating a second wire
// format for a type that already has one.
const CodecName = "msgp"

type codec struct{}

func (codec) Name() string { return CodecName }

func (codec) Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(msgp.Marshaler); ok {
		return m.MarshalMsg(nil)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("pb: %T implements neither msgp.Marshaler nor proto.Message", v)
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(msgp.Unmarshaler); ok {
		_, err := m.UnmarshalMsg(data)
		return err
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("pb: %T implements neither msgp.Unmarshaler nor proto.Message", v)
}

func init() {
	encoding.RegisterCodec(codec{})
}
