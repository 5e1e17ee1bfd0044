package validation

import (
	"context"
	"testing"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

func testDef(vtype constants.ValidatorType, config map[string]any, fields ...string) *entity.ValidatorDefinition {
	return &entity.ValidatorDefinition{
		Code:             "test_" + string(vtype),
		ValidatorType:    vtype,
		Severity:         constants.SeverityError,
		Config:           config,
		ApplicableFields: fields,
		IsActive:         true,
	}
}

func fieldsTarget(fields map[string]any) *Target {
	return &Target{Fields: fields, PageCount: 1}
}

func TestFormatHandlerNamedFormats(t *testing.T) {
	h := NewFormatHandler()
	for _, tc := range []struct {
		name   string
		format string
		value  any
		want   bool
	}{
		{"valid email", "email", "billing@acme.example", true},
		{"invalid email", "email", "not-an-email", false},
		{"valid date", "date", "2024-03-15", true},
		{"valid date slash", "date", "15/03/2024", true},
		{"invalid date", "date", "sometime soon", false},
		{"valid phone", "phone", "+49 30 123456", true},
		{"invalid phone", "phone", "call me", false},
		{"valid currency", "currency", "€1,234.56", true},
		{"plain number as currency", "currency", "1234.56", true},
		{"invalid currency", "currency", "lots", false},
		{"valid iban", "iban", "GB82 WEST 1234 5698 7654 32", true},
		{"iban bad check digits", "iban", "GB82 WEST 1234 5698 7654 33", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := testDef(constants.ValidatorFormat, map[string]any{"format": tc.format}, "value")
			result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"value": tc.value}))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.Passed != tc.want {
				t.Errorf("passed = %v, want %v (%s)", result.Passed, tc.want, result.Message)
			}
		})
	}
}

func TestFormatHandlerPattern(t *testing.T) {
	h := NewFormatHandler()
	d := testDef(constants.ValidatorFormat, map[string]any{"pattern": `^INV-\d{4}$`}, "invoice_number")

	result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"invoice_number": "INV-2024"}))
	if err != nil || !result.Passed {
		t.Errorf("INV-2024 should match: passed=%v err=%v", result.Passed, err)
	}

	result, err = h.Validate(context.Background(), d, fieldsTarget(map[string]any{"invoice_number": "2024-INV"}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Passed {
		t.Error("2024-INV should not match")
	}
	if result.FieldName != "invoice_number" {
		t.Errorf("failing field = %q", result.FieldName)
	}
}

func TestFormatHandlerAbsentFieldPasses(t *testing.T) {
	h := NewFormatHandler()
	d := testDef(constants.ValidatorFormat, map[string]any{"format": "email"}, "email")
	result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{}))
	if err != nil || !result.Passed {
		t.Errorf("absent field must pass format checks: passed=%v err=%v", result.Passed, err)
	}
}

func TestFormatHandlerInvalidPatternErrors(t *testing.T) {
	h := NewFormatHandler()
	d := testDef(constants.ValidatorFormat, map[string]any{"pattern": `([`}, "x")
	if _, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"x": "y"})); err == nil {
		t.Error("expected error for an uncompilable pattern")
	}
}

func TestChecksumLuhn(t *testing.T) {
	h := NewChecksumHandler()
	d := testDef(constants.ValidatorChecksum, map[string]any{"algorithm": "luhn"}, "card_number")

	for _, tc := range []struct {
		value string
		want  bool
	}{
		{"79927398713", true},
		{"4539 1488 0343 6467", true},
		{"79927398710", false},
		{"not-digits", false},
	} {
		result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"card_number": tc.value}))
		if err != nil {
			t.Fatalf("Validate(%q): %v", tc.value, err)
		}
		if result.Passed != tc.want {
			t.Errorf("luhn(%q) passed = %v, want %v", tc.value, result.Passed, tc.want)
		}
	}
}

func TestChecksumMod97(t *testing.T) {
	h := NewChecksumHandler()
	d := testDef(constants.ValidatorChecksum, map[string]any{"algorithm": "mod97"}, "iban")

	for _, tc := range []struct {
		value string
		want  bool
	}{
		{"DE89 3704 0044 0532 0130 00", true},
		{"de89370400440532013000", true},
		{"DE89 3704 0044 0532 0130 01", false},
	} {
		result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"iban": tc.value}))
		if err != nil {
			t.Fatalf("Validate(%q): %v", tc.value, err)
		}
		if result.Passed != tc.want {
			t.Errorf("mod97(%q) passed = %v, want %v", tc.value, result.Passed, tc.want)
		}
	}
}

func TestChecksumUnknownAlgorithmErrors(t *testing.T) {
	h := NewChecksumHandler()
	d := testDef(constants.ValidatorChecksum, map[string]any{"algorithm": "crc32"}, "x")
	if _, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"x": "1"})); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestRangeHandlerNumericBounds(t *testing.T) {
	h := NewRangeHandler()
	d := testDef(constants.ValidatorRange, map[string]any{"min": 0.0, "max": 10000.0}, "total")

	for _, tc := range []struct {
		name  string
		value any
		want  bool
	}{
		{"in range", 150.0, true},
		{"string number in range", "1,234.00", true},
		{"below min", -5.0, false},
		{"above max", 20000.0, false},
		{"non numeric", "abc", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"total": tc.value}))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.Passed != tc.want {
				t.Errorf("passed = %v, want %v (%s)", result.Passed, tc.want, result.Message)
			}
		})
	}
}

func TestRangeHandlerDateBounds(t *testing.T) {
	h := NewRangeHandler()
	d := testDef(constants.ValidatorRange,
		map[string]any{"after": "2020-01-01", "before": "2030-01-01"}, "invoice_date")

	result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"invoice_date": "2024-06-01"}))
	if err != nil || !result.Passed {
		t.Errorf("date in window must pass: passed=%v err=%v", result.Passed, err)
	}

	result, err = h.Validate(context.Background(), d, fieldsTarget(map[string]any{"invoice_date": "2019-06-01"}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Passed {
		t.Error("date before the window must fail")
	}
}

func TestRequiredHandler(t *testing.T) {
	h := NewRequiredHandler()
	d := testDef(constants.ValidatorRequired, nil, "vendor", "total")

	result, err := h.Validate(context.Background(), d,
		fieldsTarget(map[string]any{"vendor": "ACME", "total": 12.5}))
	if err != nil || !result.Passed {
		t.Errorf("all present must pass: passed=%v err=%v", result.Passed, err)
	}

	result, err = h.Validate(context.Background(), d,
		fieldsTarget(map[string]any{"vendor": "   ", "total": 12.5}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Passed {
		t.Error("whitespace-only value counts as missing")
	}
	if result.FieldName != "vendor" {
		t.Errorf("failing field = %q, want vendor", result.FieldName)
	}
}

func TestCrossFieldSum(t *testing.T) {
	h := NewCrossFieldHandler()
	d := testDef(constants.ValidatorCrossField, map[string]any{
		"rule":        "sum",
		"fields":      []any{"subtotal", "tax"},
		"total_field": "total",
	})

	for _, tc := range []struct {
		name   string
		fields map[string]any
		want   bool
	}{
		{"reconciles", map[string]any{"subtotal": 100.0, "tax": 19.0, "total": 119.0}, true},
		{"within tolerance", map[string]any{"subtotal": 100.0, "tax": 19.0, "total": 119.009}, true},
		{"off by more", map[string]any{"subtotal": 100.0, "tax": 19.0, "total": 120.0}, false},
		{"total absent", map[string]any{"subtotal": 100.0, "tax": 19.0}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result, err := h.Validate(context.Background(), d, fieldsTarget(tc.fields))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.Passed != tc.want {
				t.Errorf("passed = %v, want %v (%s)", result.Passed, tc.want, result.Message)
			}
		})
	}
}

func TestCrossFieldMatch(t *testing.T) {
	h := NewCrossFieldHandler()
	d := testDef(constants.ValidatorCrossField,
		map[string]any{"rule": "match", "fields": []any{"billing_name", "shipping_name"}})

	result, err := h.Validate(context.Background(), d,
		fieldsTarget(map[string]any{"billing_name": "ACME", "shipping_name": "ACME"}))
	if err != nil || !result.Passed {
		t.Errorf("equal values must pass: passed=%v err=%v", result.Passed, err)
	}

	result, err = h.Validate(context.Background(), d,
		fieldsTarget(map[string]any{"billing_name": "ACME", "shipping_name": "Globex"}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Passed {
		t.Error("differing values must fail")
	}
}

func TestCrossFieldDateOrder(t *testing.T) {
	h := NewCrossFieldHandler()
	d := testDef(constants.ValidatorCrossField,
		map[string]any{"rule": "date_order", "fields": []any{"issue_date", "due_date"}})

	result, err := h.Validate(context.Background(), d,
		fieldsTarget(map[string]any{"issue_date": "2024-01-01", "due_date": "2024-02-01"}))
	if err != nil || !result.Passed {
		t.Errorf("ascending dates must pass: passed=%v err=%v", result.Passed, err)
	}

	result, err = h.Validate(context.Background(), d,
		fieldsTarget(map[string]any{"issue_date": "2024-03-01", "due_date": "2024-02-01"}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Passed {
		t.Error("descending dates must fail")
	}
}

func TestCompletenessHandler(t *testing.T) {
	h := NewCompletenessHandler()
	schema := []*entity.CatalogField{{Code: "a"}, {Code: "b"}, {Code: "c"}, {Code: "d"}}

	d := testDef(constants.ValidatorCompleteness,
		map[string]any{"min_pages": 2.0, "min_fields_percent": 50.0})

	target := &Target{
		Fields:      map[string]any{"a": "x", "b": "y", "c": "z"},
		FieldSchema: schema,
		PageCount:   3,
	}
	result, err := h.Validate(context.Background(), d, target)
	if err != nil || !result.Passed {
		t.Errorf("3 pages, 75%% extracted must pass: passed=%v err=%v", result.Passed, err)
	}

	target.PageCount = 1
	result, _ = h.Validate(context.Background(), d, target)
	if result.Passed {
		t.Error("1 page must fail min_pages 2")
	}

	target.PageCount = 3
	target.Fields = map[string]any{"a": "x"}
	result, _ = h.Validate(context.Background(), d, target)
	if result.Passed {
		t.Error("25% extracted must fail min_fields_percent 50")
	}
}

func TestBusinessRuleHandler(t *testing.T) {
	h := NewBusinessRuleHandler()
	for _, tc := range []struct {
		name   string
		expr   string
		fields map[string]any
		want   bool
	}{
		{"numeric literal holds", "total > 0", map[string]any{"total": 12.5}, true},
		{"numeric literal fails", "total > 0", map[string]any{"total": -3.0}, false},
		{"field vs field", "net_total <= gross_total", map[string]any{"net_total": 100.0, "gross_total": 119.0}, true},
		{"string equality", `currency == "EUR"`, map[string]any{"currency": "EUR"}, true},
		{"string inequality fails", `currency != "EUR"`, map[string]any{"currency": "EUR"}, false},
		{"absent field not applicable", "total > 0", map[string]any{}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := testDef(constants.ValidatorBusinessRule, map[string]any{"expression": tc.expr})
			result, err := h.Validate(context.Background(), d, fieldsTarget(tc.fields))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.Passed != tc.want {
				t.Errorf("%q passed = %v, want %v", tc.expr, result.Passed, tc.want)
			}
		})
	}
}

func TestBusinessRuleUnparseableExpressionErrors(t *testing.T) {
	h := NewBusinessRuleHandler()
	d := testDef(constants.ValidatorBusinessRule, map[string]any{"expression": "just words"})
	if _, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{})); err == nil {
		t.Error("expected error for an expression with no operator")
	}
}

func TestLookupHandler(t *testing.T) {
	h := NewLookupHandler(map[string][]string{
		"currency_codes": {"USD", "EUR", "GBP"},
	})
	d := testDef(constants.ValidatorLookup,
		map[string]any{"source": "currency_codes"}, "currency")

	result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"currency": "eur"}))
	if err != nil || !result.Passed {
		t.Errorf("lookup is case-insensitive: passed=%v err=%v", result.Passed, err)
	}

	result, err = h.Validate(context.Background(), d, fieldsTarget(map[string]any{"currency": "XYZ"}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Passed {
		t.Error("unknown code must fail")
	}

	d2 := testDef(constants.ValidatorLookup, map[string]any{"source": "no_such_source"}, "currency")
	if _, err := h.Validate(context.Background(), d2, fieldsTarget(map[string]any{"currency": "EUR"})); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestLookupRegisterSource(t *testing.T) {
	h := NewLookupHandler(nil)
	h.RegisterSource("vendors", []string{"ACME Corp"})
	d := testDef(constants.ValidatorLookup, map[string]any{"source": "vendors"}, "vendor")

	result, err := h.Validate(context.Background(), d, fieldsTarget(map[string]any{"vendor": "acme corp"}))
	if err != nil || !result.Passed {
		t.Errorf("registered source must serve lookups: passed=%v err=%v", result.Passed, err)
	}
}
