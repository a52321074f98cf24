package parallel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2}
	got, err := Map(context.Background(), 3, items, func(_ context.Context, n int) (string, error) {
		return fmt.Sprint(n * n), nil
	}, nil)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if strings.Join(got, ",") != "25,9,64,1,81,4" {
		t.Errorf("unexpected results: %v", got)
	}
}

func TestMap_CollectsErrors(t *testing.T) {
	errOdd := errors.New("odd")
	_, err := Map(context.Background(), 2, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, errOdd
		}
		return n, nil
	}, nil)
	if !errors.Is(err, errOdd) {
		t.Fatalf("expected errOdd, got %v", err)
	}
	if !strings.Contains(err.Error(), "item 0") || !strings.Contains(err.Error(), "item 2") {
		t.Errorf("expected both failing items in %q", err)
	}
}

func TestMap_Panic(t *testing.T) {
	_, err := Map(context.Background(), 1, []string{"x"}, func(context.Context, string) (int, error) {
		panic("bad input")
	}, nil)
	if !errors.Is(err, ErrTaskPanic) {
		t.Errorf("expected ErrTaskPanic, got %v", err)
	}
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Map(ctx, 2, []int{1, 2, 3}, func(context.Context, int) (int, error) {
		calls++
		return 0, nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("no item should run after cancellation, ran %d", calls)
	}
}

func TestMap_Empty(t *testing.T) {
	got, err := Map(context.Background(), 4, nil, func(context.Context, int) (int, error) { return 0, nil }, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("unexpected result %v, %v", got, err)
	}
}
