package forms

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/suspectuso/otc-escrow/internal/deal"
)

func TestDealFormHappyPath(t *testing.T) {
	st := StartDeal()

	steps := []struct {
		apply func() error
		want  Step
	}{
		{func() error { return st.ChooseMethod(deal.MethodBankCard) }, StepDealAmount},
		{func() error { return st.EnterAmount(" 1500,50 ") }, StepDealCurrency},
		{func() error { return st.ChooseCurrency("rub") }, StepDealDescription},
		{func() error { return st.EnterDescription("  NFT username  ") }, StepDealReady},
	}

	for i, s := range steps {
		if err := s.apply(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if st.Step != s.want {
			t.Fatalf("step %d: at %q, want %q", i, st.Step, s.want)
		}
	}

	want := DealDraft{Method: deal.MethodBankCard, Amount: "1500.5", Currency: "RUB", Description: "NFT username"}
	if st.Draft != want {
		t.Errorf("draft = %+v, want %+v", st.Draft, want)
	}
	if !st.InDealForm() {
		t.Errorf("ready draft must still count as deal form")
	}
}

func TestDealFormRejectsBadInput(t *testing.T) {
	st := StartDeal()

	if err := st.EnterAmount("10"); !errors.Is(err, ErrWrongStep) {
		t.Errorf("out of order input: expected ErrWrongStep, got %v", err)
	}
	if err := st.ChooseMethod("cash"); !errors.Is(err, deal.ErrInvalidMethod) {
		t.Errorf("expected ErrInvalidMethod, got %v", err)
	}
	if st.Step != StepDealMethod {
		t.Fatalf("invalid input advanced the form to %q", st.Step)
	}

	st.ChooseMethod(deal.MethodTonWallet)
	for _, bad := range []string{"", "abc", "0", "-1"} {
		if err := st.EnterAmount(bad); !errors.Is(err, deal.ErrInvalidAmount) {
			t.Errorf("EnterAmount(%q): expected ErrInvalidAmount, got %v", bad, err)
		}
	}

	st.EnterAmount("1")
	if err := st.ChooseCurrency("EUR"); !errors.Is(err, deal.ErrInvalidCurrency) {
		t.Errorf("expected ErrInvalidCurrency, got %v", err)
	}

	st.ChooseCurrency("TON")
	if err := st.EnterDescription("   "); !errors.Is(err, deal.ErrEmptyDescription) {
		t.Errorf("expected ErrEmptyDescription, got %v", err)
	}
	if st.Step != StepDealDescription {
		t.Errorf("empty description advanced the form")
	}
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Get(ctx, 1)
	if err != nil || st != nil {
		t.Fatalf("idle user: %+v, %v", st, err)
	}

	form := StartDeal()
	form.ChooseMethod(deal.MethodStars)
	if err := store.Set(ctx, 1, form); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, 1)
	if err != nil || got == nil {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if got.Step != StepDealAmount || got.Draft.Method != deal.MethodStars {
		t.Errorf("stored form = %+v", got)
	}

	// mutating the copy must not leak into the store before Set
	got.Step = StepDealReady
	again, _ := store.Get(ctx, 1)
	if again.Step != StepDealAmount {
		t.Errorf("store shares state with callers")
	}

	if err := store.Set(ctx, 1, Await(StepIdle)); err != nil {
		t.Fatalf("set idle: %v", err)
	}
	if st, _ := store.Get(ctx, 1); st != nil {
		t.Errorf("idle step must clear the form, got %+v", st)
	}

	store.Set(ctx, 2, Await(StepWallet))
	if err := store.Clear(ctx, 2); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if st, _ := store.Get(ctx, 2); st != nil {
		t.Errorf("cleared form still present: %+v", st)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client, err := DialRedis(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 15)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	store := NewRedisStore(client)
	store.Clear(context.Background(), 1)
	store.Clear(context.Background(), 2)
	testStore(t, store)
}

func TestRedisStateEncoding(t *testing.T) {
	st := StartDeal()
	if err := st.ChooseMethod(deal.MethodTonWallet); err != nil {
		t.Fatalf("method: %v", err)
	}
	if err := st.EnterAmount("12,5"); err != nil {
		t.Fatalf("amount: %v", err)
	}

	raw, err := encodeState(st)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeState(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != *st {
		t.Errorf("decoded %+v, want %+v", *got, *st)
	}

	// value layout as stored under otc:form:<id>
	stored := []byte(`{"step":"deal_description","draft":{"method":"bank_card","amount":"100","currency":"USD"}}`)
	got, err = decodeState(stored)
	if err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	want := State{Step: StepDealDescription, Draft: DealDraft{Method: deal.MethodBankCard, Amount: "100", Currency: "USD"}}
	if *got != want {
		t.Errorf("decoded %+v, want %+v", *got, want)
	}

	if got, err := decodeState([]byte(`{"step":""}`)); err != nil || got != nil {
		t.Errorf("idle value = %+v, %v; want nil", got, err)
	}
	if _, err := decodeState([]byte("not json")); err == nil {
		t.Error("corrupt value must fail to decode")
	}
	if key(42) != "otc:form:42" {
		t.Errorf("key(42) = %q", key(42))
	}
}
