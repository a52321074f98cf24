package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain helpers

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

// PolicyID tags an entry with a graph node id.
func PolicyID(id string) Field {
	return String("policy_id", id)
}

func Namespace(ns string) Field {
	return String("namespace", ns)
}

func Format(f string) Field {
	return String("format", f)
}

// Code tags an entry with a diagnostic code.
func Code(c string) Field {
	return String("code", c)
}

// Nodes tags an entry with the node ids a diagnostic refers to.
func Nodes(ids []string) Field {
	return Any("nodes", ids)
}
