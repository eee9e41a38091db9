package crudset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func TestSanitizerTitleCasesField(t *testing.T) {
	title := cases.Title(language.English)
	san := NewSanitizer(peopleTable).
		Field("name", func(ctx context.Context, data Row, field string) (any, error) {
			return title.String(data[field].(string)), nil
		})

	out, err := san.Apply(context.Background(), Row{"name": "molly"})
	require.NoError(t, err)
	assert.Equal(t, "Molly", out["name"])
}

func TestSanitizerPipelineOrder(t *testing.T) {
	san := NewSanitizer(peopleTable).
		Data(func(ctx context.Context, data Row) (Row, error) {
			data["name"] = data["name"].(string) + "-a"
			return data, nil
		}).
		Data(func(ctx context.Context, data Row) (Row, error) {
			data["name"] = data["name"].(string) + "-b"
			return data, nil
		}).
		Field("name", func(ctx context.Context, data Row, field string) (any, error) {
			// Field funcs see the output of every data func.
			return data[field].(string) + "-c", nil
		})

	out, err := san.Apply(context.Background(), Row{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-a-b-c", out["name"])
}

func TestSanitizerFieldSkippedWhenAbsent(t *testing.T) {
	called := false
	san := NewSanitizer(peopleTable).
		Field("name", func(ctx context.Context, data Row, field string) (any, error) {
			called = true
			return data[field], nil
		})

	_, err := san.Apply(context.Background(), Row{"family_id": int64(2)})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestSanitizerFieldRunsOnInjectedField(t *testing.T) {
	san := NewSanitizer(peopleTable).
		Data(func(ctx context.Context, data Row) (Row, error) {
			data["name"] = "injected"
			return data, nil
		}).
		Field("name", func(ctx context.Context, data Row, field string) (any, error) {
			return data[field].(string) + "!", nil
		})

	out, err := san.Apply(context.Background(), Row{})
	require.NoError(t, err)
	assert.Equal(t, "injected!", out["name"])
}

type actorKey struct{}

func TestSanitizerContextThreadedThrough(t *testing.T) {
	san := NewSanitizer(peopleTable).
		Data(func(ctx context.Context, data Row) (Row, error) {
			data["name"] = ctx.Value(actorKey{}).(string)
			return data, nil
		})

	ctx := context.WithValue(context.Background(), actorKey{}, "alice")
	out, err := san.Apply(ctx, Row{})
	require.NoError(t, err)
	assert.Equal(t, "alice", out["name"])
}

func TestSanitizerUnknownFieldRegistration(t *testing.T) {
	san := NewSanitizer(peopleTable).
		Field("shoe_size", func(ctx context.Context, data Row, field string) (any, error) {
			return data[field], nil
		})

	_, err := san.Apply(context.Background(), Row{"name": "x"})
	var unknown *ErrUnknownField
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "shoe_size", unknown.Field)
}

func TestSanitizerDoesNotMutateInput(t *testing.T) {
	san := NewSanitizer(peopleTable).
		Data(func(ctx context.Context, data Row) (Row, error) {
			data["name"] = "changed"
			return data, nil
		})

	in := Row{"name": "original"}
	_, err := san.Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "original", in["name"])
}
