package dist

import (
	"math"
	"testing"
)

func TestCDFChi2(tst *testing.T) {
	// qchisq(0.95, df=1) = 3.841459
	if p := CDFChi2(3.841459, 1); math.Abs(p-0.95) > 1e-5 {
		tst.Error("Expected CDF 0.95, got", p)
	}
	// qchisq(0.9, df=2) = 4.60517
	if p := CDFChi2(4.60517, 2); math.Abs(p-0.9) > 1e-5 {
		tst.Error("Expected CDF 0.9, got", p)
	}
	if p := CDFChi2(0, 1); p != 0 {
		tst.Error("Expected CDF 0 at x=0, got", p)
	}
}

func TestQuantileChi2RoundTrip(tst *testing.T) {
	for _, df := range []float64{1, 2, 5, 10} {
		for _, prob := range []float64{0.05, 0.5, 0.9, 0.95, 0.99} {
			q := QuantileChi2(prob, df)
			p := CDFChi2(q, df)
			if math.Abs(p-prob) > 1e-4 {
				tst.Errorf("df=%v prob=%v: quantile %v gives cdf %v", df, prob, q, p)
			}
		}
	}
}

func TestPValueT(tst *testing.T) {
	// qt(0.975, df=10) = 2.228139
	if p := PValueT(2.228139, 10); math.Abs(p-0.05) > 1e-5 {
		tst.Error("Expected two-sided p-value 0.05, got", p)
	}
	// symmetry
	if p1, p2 := PValueT(1.5, 7), PValueT(-1.5, 7); math.Abs(p1-p2) > 1e-12 {
		tst.Error("p-value not symmetric:", p1, p2)
	}
	if p := PValueT(0, 5); math.Abs(p-1) > 1e-12 {
		tst.Error("Expected p-value 1 at t=0, got", p)
	}
}

func TestCDFStudentsT(tst *testing.T) {
	if p := CDFStudentsT(0, 10); p != 0.5 {
		tst.Error("Expected CDF 0.5 at t=0, got", p)
	}
	if p := CDFStudentsT(2.228139, 10); math.Abs(p-0.975) > 1e-5 {
		tst.Error("Expected CDF 0.975, got", p)
	}
	if p := CDFStudentsT(-2.228139, 10); math.Abs(p-0.025) > 1e-5 {
		tst.Error("Expected CDF 0.025, got", p)
	}
}
