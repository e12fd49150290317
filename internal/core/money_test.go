package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0", true},
		{" 2.50 ", "2.5", true},
		{"100.001", "100.001", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	// 0.1 added ten times must be exactly 1, which float64 gets wrong.
	sum := ZeroMoney()
	tenth := MustMoney("0.1")
	for i := 0; i < 10; i++ {
		sum = sum.Add(tenth)
	}
	if sum.Cmp(MustMoney("1")) != 0 {
		t.Fatalf("expected exactly 1, got %s", sum)
	}
}

func TestMoneyCmpUsesDecimalValue(t *testing.T) {
	// Lexically "9" > "10" but numerically it is not.
	if MustMoney("9").Cmp(MustMoney("10")) != -1 {
		t.Fatal("9 should compare less than 10")
	}
	if MustMoney("100.001").Cmp(MustMoney("100")) != 1 {
		t.Fatal("100.001 should compare greater than 100")
	}
}
