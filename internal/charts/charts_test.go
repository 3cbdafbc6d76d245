package charts

import (
	"strings"
	"testing"

	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
)

func TestCategoryBar(t *testing.T) {
	html, err := CategoryBar([]store.CategoryCountRow{
		{Name: "Food & Drink", Count: 12},
		{Name: "Gifts", Count: 3},
	})
	if err != nil {
		t.Fatalf("CategoryBar: %v", err)
	}
	if !strings.Contains(string(html), "Food &amp; Drink") && !strings.Contains(string(html), "Food & Drink") {
		t.Error("chart HTML should contain the category label")
	}
	if !strings.Contains(string(html), "Shops by Category") {
		t.Error("chart HTML should contain the title")
	}
}

func TestActivityLine(t *testing.T) {
	html, err := ActivityLine([]service.DailyPoint{
		{Day: "2026-08-25", Count: 4},
		{Day: "2026-08-26", Count: 0},
	})
	if err != nil {
		t.Fatalf("ActivityLine: %v", err)
	}
	if !strings.Contains(string(html), "2026-08-25") {
		t.Error("chart HTML should contain the day label")
	}
}

func TestStatusDonut(t *testing.T) {
	html, err := StatusDonut(2, 10, 1)
	if err != nil {
		t.Fatalf("StatusDonut: %v", err)
	}
	for _, label := range []string{"Pending", "Approved", "Rejected"} {
		if !strings.Contains(string(html), label) {
			t.Errorf("chart HTML should contain %q", label)
		}
	}
}

func TestEmptyData(t *testing.T) {
	if _, err := CategoryBar(nil); err != nil {
		t.Errorf("CategoryBar with no rows: %v", err)
	}
	if _, err := ActivityLine(nil); err != nil {
		t.Errorf("ActivityLine with no points: %v", err)
	}
}
