package evaluator

import (
	"testing"
)

func TestDigitOperations(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name   string
		symbol string
		args   []Object
		want   string
	}{
		{"btoi true", "nats.btoi", []Object{TRUE}, "1"},
		{"btoi false", "nats.btoi", []Object{FALSE}, "0"},
		{"abs negative", "nats.abs_value", []Object{NewInteger(-5)}, "5"},
		{"sum_digits", "nats.sum_digits", []Object{NewInteger(98765)}, "35"},
		{"sum_digits zero", "nats.sum_digits", []Object{NewInteger(0)}, "0"},
		{"sum_digits hex", "nats.sum_digits_base", []Object{NewInteger(255), NewInteger(16)}, "30"},
		{"num_digits", "nats.num_digits", []Object{NewInteger(12345)}, "5"},
		{"num_digits zero", "nats.num_digits", []Object{NewInteger(0)}, "0"},
		{"digital_root", "nats.digital_root", []Object{NewInteger(98765)}, "8"},
		{"digital_root single", "nats.digital_root", []Object{NewInteger(7)}, "7"},
		{"harshad", "nats.is_harshad", []Object{NewInteger(18)}, "true"},
		{"not harshad", "nats.is_harshad", []Object{NewInteger(19)}, "false"},
		{"harshad zero", "nats.is_harshad", []Object{NewInteger(0)}, "true"},
		{"armstrong", "nats.is_armstrong", []Object{NewInteger(153)}, "true"},
		{"not armstrong", "nats.is_armstrong", []Object{NewInteger(154)}, "false"},
		{"armstrong single digit", "nats.is_armstrong", []Object{NewInteger(9)}, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.symbol, tt.args...), tt.want)
		})
	}

	t.Run("base below two", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.sum_digits_base", NewInteger(5), NewInteger(1)), ERR_RUNTIME)
	})
	t.Run("negative input", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.sum_digits", NewInteger(-3)), ERR_TYPE)
	})
	t.Run("btoi wants a boolean", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.btoi", NewInteger(1)), ERR_TYPE)
	})
}

func TestDivisorOperations(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name   string
		symbol string
		arg    int64
		want   string
	}{
		{"divisors of 12", "nats.divisors_count", 12, "6"},
		{"divisors of prime", "nats.divisors_count", 13, "2"},
		{"sigma of 12", "nats.divisors_sum", 12, "28"},
		{"aliquot sum of 12", "nats.proper_divisors_sum", 12, "16"},
		{"perfect 6", "nats.is_perfect", 6, "true"},
		{"perfect 28", "nats.is_perfect", 28, "true"},
		{"not perfect", "nats.is_perfect", 12, "false"},
		{"perfect zero", "nats.is_perfect", 0, "false"},
		{"abundant 12", "nats.is_abundant", 12, "true"},
		{"deficient 8", "nats.is_deficient", 8, "true"},
		{"amicable 220", "nats.is_amicable", 220, "true"},
		{"amicable 284", "nats.is_amicable", 284, "true"},
		{"perfect is not amicable", "nats.is_amicable", 6, "false"},
		{"aliquot chain of 12", "nats.aliquot_length", 12, "7"},
		{"aliquot chain of perfect", "nats.aliquot_length", 6, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.symbol, NewInteger(tt.arg)), tt.want)
		})
	}

	t.Run("zero has no factorization", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.divisors_count", NewInteger(0)), ERR_RUNTIME)
		expectError(t, callNative(t, rt, "nats.proper_divisors_sum", NewInteger(0)), ERR_RUNTIME)
	})
	t.Run("factorization requires 64 bits", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.divisors_count", bigPow2(70)), ERR_TYPE)
	})
}

func TestPrimalityPredicates(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name   string
		symbol string
		arg    int64
		want   string
	}{
		{"two", "nats.is_prime", 2, "true"},
		{"ninety seven", "nats.is_prime", 97, "true"},
		{"one", "nats.is_prime", 1, "false"},
		{"composite", "nats.is_prime", 91, "false"},
		{"simple alias", "nats.is_simple_number", 13, "true"},
		{"composite check", "nats.is_composite", 91, "true"},
		{"one is neither", "nats.is_composite", 1, "false"},
		{"murekkeb alias", "nats.is_murekkeb_number", 12, "true"},
		{"twin five", "nats.is_twin_prime", 5, "true"},
		{"twin seven", "nats.is_twin_prime", 7, "true"},
		{"isolated prime", "nats.is_twin_prime", 23, "false"},
		{"two has no twin", "nats.is_twin_prime", 2, "false"},
		{"sophie germain", "nats.is_sophie_germain_prime", 11, "true"},
		{"not sophie germain", "nats.is_sophie_germain_prime", 13, "false"},
		{"cunningham two", "nats.is_cunningham_prime", 2, "true"},
		{"cunningham seven", "nats.is_cunningham_prime", 7, "true"},
		{"not cunningham", "nats.is_cunningham_prime", 11, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.symbol, NewInteger(tt.arg)), tt.want)
		})
	}
}

func TestPseudoprimeTests(t *testing.T) {
	rt := NewRuntime()

	t.Run("fermat little theorem", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.fermat_little", NewInteger(2), NewInteger(7)), "true")
		expectInspect(t, callNative(t, rt, "nats.fermat_little", NewInteger(3), NewInteger(10)), "false")
		expectError(t, callNative(t, rt, "nats.fermat_little", NewInteger(2), NewInteger(1)), ERR_RUNTIME)
		expectError(t, callNative(t, rt, "nats.fermat_little", NewInteger(1), NewInteger(7)), ERR_RUNTIME)
	})

	t.Run("fermat pseudoprime 341", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.is_fermat_pseudoprime", NewInteger(341), NewInteger(2)), "true")
		expectInspect(t, callNative(t, rt, "nats.is_fermat_pseudoprime", NewInteger(341), NewInteger(3)), "false")
	})

	t.Run("strong pseudoprime 2047", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.is_strong_pseudoprime", NewInteger(2047), NewInteger(2)), "true")
		expectInspect(t, callNative(t, rt, "nats.is_strong_pseudoprime", NewInteger(341), NewInteger(2)), "false")
	})

	t.Run("miller rabin", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.miller_rabin_test", NewInteger(97), NewInteger(5)), "true")
		expectInspect(t, callNative(t, rt, "nats.miller_rabin_test", NewInteger(561), NewInteger(3)), "false")
		expectInspect(t, callNative(t, rt, "nats.miller_rabin_test", NewInteger(2), NewInteger(1)), "true")
		expectInspect(t, callNative(t, rt, "nats.miller_rabin_test", NewInteger(1), NewInteger(1)), "false")
		expectError(t, callNative(t, rt, "nats.miller_rabin_test", NewInteger(97), NewInteger(0)), ERR_RUNTIME)
	})
}

func TestGCDFamily(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name   string
		symbol string
		a, b   int64
		want   string
	}{
		{"gcd", "nats.gcd", 12, 18, "6"},
		{"gcd of negatives", "nats.gcd", -12, 18, "6"},
		{"gcd with zero", "nats.gcd", 0, 5, "5"},
		{"lcm", "nats.lcm", 4, 6, "12"},
		{"lcm with zero", "nats.lcm", 0, 5, "0"},
		{"coprime", "nats.coprime", 8, 9, "true"},
		{"not coprime", "nats.coprime", 8, 12, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.symbol, NewInteger(tt.a), NewInteger(tt.b)), tt.want)
		})
	}
}

func TestParityHelpers(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name   string
		symbol string
		arg    int64
		want   string
	}{
		{"even", "nats.is_even", 4, "true"},
		{"negative even", "nats.is_even", -2, "true"},
		{"odd", "nats.is_odd", 7, "true"},
		{"negative odd", "nats.is_odd", -3, "true"},
		{"next even from even", "nats.next_even", 4, "6"},
		{"next even from odd", "nats.next_even", 3, "4"},
		{"next odd from even", "nats.next_odd", 4, "5"},
		{"next odd from odd", "nats.next_odd", 5, "7"},
		{"next even from negative", "nats.next_even", -3, "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.symbol, NewInteger(tt.arg)), tt.want)
		})
	}
}

func TestCombinatorics(t *testing.T) {
	rt := NewRuntime()

	t.Run("fibonacci", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.fib", NewInteger(0)), "0")
		expectInspect(t, callNative(t, rt, "nats.fib", NewInteger(1)), "1")
		expectInspect(t, callNative(t, rt, "nats.fib", NewInteger(10)), "55")
		expectInspect(t, callNative(t, rt, "nats.fib", NewInteger(100)), "354224848179261915075")
	})

	t.Run("factorial", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.fact", NewInteger(0)), "1")
		expectInspect(t, callNative(t, rt, "nats.fact", NewInteger(5)), "120")
		expectInspect(t, callNative(t, rt, "nats.fact", NewInteger(25)), "15511210043330985984000000")
	})

	t.Run("binomial", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.nCr", NewInteger(5), NewInteger(2)), "10")
		expectInspect(t, callNative(t, rt, "nats.nCr", NewInteger(52), NewInteger(5)), "2598960")
		expectInspect(t, callNative(t, rt, "nats.nCr", NewInteger(3), NewInteger(5)), "0")
	})
}

func TestModularArithmetic(t *testing.T) {
	rt := NewRuntime()

	t.Run("modpow", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.modpow", NewInteger(2), NewInteger(10), NewInteger(1000)), "24")
		expectError(t, callNative(t, rt, "nats.modpow", NewInteger(2), NewInteger(5), NewInteger(0)), ERR_RUNTIME)
	})

	t.Run("modinv", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.modinv", NewInteger(3), NewInteger(11)), "4")
		expectError(t, callNative(t, rt, "nats.modinv", NewInteger(6), NewInteger(15)), ERR_RUNTIME)
		expectError(t, callNative(t, rt, "nats.modinv", NewInteger(3), NewInteger(0)), ERR_RUNTIME)
	})

	t.Run("wilson theorem", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.wilson_theorem", NewInteger(7)), "true")
		expectInspect(t, callNative(t, rt, "nats.wilson_theorem", NewInteger(8)), "false")
		expectInspect(t, callNative(t, rt, "nats.wilson_theorem", NewInteger(2)), "true")
		expectInspect(t, callNative(t, rt, "nats.wilson_theorem", NewInteger(1)), "false")
	})

	t.Run("legendre symbol", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.legendre_symbol", NewInteger(2), NewInteger(7)), "1")
		expectInspect(t, callNative(t, rt, "nats.legendre_symbol", NewInteger(3), NewInteger(7)), "-1")
		expectInspect(t, callNative(t, rt, "nats.legendre_symbol", NewInteger(0), NewInteger(7)), "0")
		expectError(t, callNative(t, rt, "nats.legendre_symbol", NewInteger(2), NewInteger(9)), ERR_RUNTIME)
		expectError(t, callNative(t, rt, "nats.legendre_symbol", NewInteger(2), NewInteger(2)), ERR_RUNTIME)
	})

	t.Run("quadratic residue", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "nats.is_quadratic_residue", NewInteger(2), NewInteger(7)), "true")
		expectInspect(t, callNative(t, rt, "nats.is_quadratic_residue", NewInteger(3), NewInteger(7)), "false")
	})
}

func TestMultiplicativeFunctions(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name   string
		symbol string
		arg    int64
		want   string
	}{
		{"phi of 36", "nats.phi", 36, "12"},
		{"phi of prime", "nats.phi", 13, "12"},
		{"phi of one", "nats.phi", 1, "1"},
		{"phi of zero", "nats.phi", 0, "0"},
		{"mobius squarefree", "nats.mobius", 30, "-1"},
		{"mobius with square", "nats.mobius", 12, "0"},
		{"mobius of one", "nats.mobius", 1, "1"},
		{"mobius of zero", "nats.mobius", 0, "0"},
		{"carmichael of 8", "nats.carmichael", 8, "2"},
		{"carmichael of 12", "nats.carmichael", 12, "2"},
		{"carmichael of 561", "nats.carmichael", 561, "80"},
		{"carmichael below two", "nats.carmichael", 1, "0"},
		{"561 is carmichael", "nats.is_carmichael", 561, "true"},
		{"1105 is carmichael", "nats.is_carmichael", 1105, "true"},
		{"prime is not carmichael", "nats.is_carmichael", 13, "false"},
		{"plain composite", "nats.is_carmichael", 12, "false"},
		{"prime count to ten", "nats.prime_count_up_to", 10, "4"},
		{"prime count to one", "nats.prime_count_up_to", 1, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.symbol, NewInteger(tt.arg)), tt.want)
		})
	}
}

func TestGoldbach(t *testing.T) {
	rt := NewRuntime()
	expectInspect(t, callNative(t, rt, "nats.goldbach_holds", NewInteger(100)), "true")
	expectInspect(t, callNative(t, rt, "nats.goldbach_witness", NewInteger(10)), "3")
	expectInspect(t, callNative(t, rt, "nats.goldbach_witness", NewInteger(6)), "3")

	t.Run("target must be even and above four", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.goldbach_holds", NewInteger(9)), ERR_RUNTIME)
		expectError(t, callNative(t, rt, "nats.goldbach_holds", NewInteger(4)), ERR_RUNTIME)
	})
}

func TestSquaresAndPowers(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name string
		n, k int64
		want string
	}{
		{"cube", 27, 3, "true"},
		{"square via power", 49, 2, "true"},
		{"not a power", 10, 2, "false"},
		{"zero", 0, 2, "true"},
		{"large power", 1024, 10, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, "nats.is_power", NewInteger(tt.n), NewInteger(tt.k)), tt.want)
		})
	}

	expectInspect(t, callNative(t, rt, "nats.is_square", NewInteger(49)), "true")
	expectInspect(t, callNative(t, rt, "nats.is_square", NewInteger(50)), "false")
	expectInspect(t, callNative(t, rt, "nats.is_square", NewInteger(0)), "true")

	t.Run("exponent floor", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.is_power", NewInteger(8), NewInteger(1)), ERR_RUNTIME)
	})
}

func TestKaprekarNumbers(t *testing.T) {
	rt := NewRuntime()
	expectInspect(t, callNative(t, rt, "nats.kaprekar_constant"), "6174")

	tests := []struct {
		name   string
		symbol string
		arg    int64
		want   string
	}{
		{"45 is kaprekar", "nats.is_kaprekar", 45, "true"},
		{"297 is kaprekar", "nats.is_kaprekar", 297, "true"},
		{"9 is kaprekar", "nats.is_kaprekar", 9, "true"},
		{"10 is not", "nats.is_kaprekar", 10, "false"},
		{"one is trivially kaprekar", "nats.is_kaprekar", 1, "true"},
		{"routine converges", "nats.kaprekar_theorem", 1000, "true"},
		{"repdigit stalls", "nats.kaprekar_theorem", 1111, "false"},
		{"steps from 3524", "nats.kaprekar_6174_steps", 3524, "3"},
		{"steps from constant", "nats.kaprekar_6174_steps", 6174, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.symbol, NewInteger(tt.arg)), tt.want)
		})
	}

	t.Run("theorem needs four digits", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.kaprekar_theorem", NewInteger(10000)), ERR_RUNTIME)
	})
}

func TestMersennePrimes(t *testing.T) {
	rt := NewRuntime()
	expectInspect(t, callNative(t, rt, "nats.mersenne_number", NewInteger(7)), "127")
	expectInspect(t, callNative(t, rt, "nats.mersenne_number", NewInteger(1)), "1")
	expectInspect(t, callNative(t, rt, "nats.lucas_lehmer", NewInteger(7)), "true")
	expectInspect(t, callNative(t, rt, "nats.lucas_lehmer", NewInteger(11)), "false")
	expectInspect(t, callNative(t, rt, "nats.is_mersenne_prime", NewInteger(13)), "true")
	expectInspect(t, callNative(t, rt, "nats.is_mersenne_prime", NewInteger(11)), "false")
	expectInspect(t, callNative(t, rt, "nats.is_mersenne_prime", NewInteger(4)), "false")

	t.Run("exponent floors", func(t *testing.T) {
		expectError(t, callNative(t, rt, "nats.mersenne_number", NewInteger(0)), ERR_RUNTIME)
		expectError(t, callNative(t, rt, "nats.lucas_lehmer", NewInteger(1)), ERR_RUNTIME)
	})
}
