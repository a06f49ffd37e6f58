package recorder

import (
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func appendVersionAttr(out []attribute.KeyValue, m *debug.Module) []attribute.KeyValue {
	switch m.Path {
	case "github.com/livekit/wavrec":
		out = append(out, attribute.String(
			"livekit.wavrec.version", m.Version,
		))
	case "github.com/livekit/media-sdk":
		out = append(out, attribute.String(
			"livekit.media-sdk.version", m.Version,
		))
	}
	return out
}

func getVersions() []attribute.KeyValue {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	var out []attribute.KeyValue
	out = appendVersionAttr(out, &info.Main)
	for _, d := range info.Deps {
		out = appendVersionAttr(out, d)
	}
	return out
}

var tracer = otel.Tracer(
	"github.com/livekit/wavrec",
	trace.WithInstrumentationAttributes(getVersions()...),
)
