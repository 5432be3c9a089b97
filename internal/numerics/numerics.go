// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numerics implements the statistical primitives shared by the
// IP/PA and SL analyzers: Stirling-corrected log-binomial and
// log-hypergeometric probabilities, Fisher's exact test, the binomial
// test, and Benjamini-Hochberg FDR adjustment.
//
// The Stirling-error series, bd0 and fisherTest2x2 are ports of the
// reference C++ implementation and intentionally match its constants
// and control flow rather than a textbook formulation, so that results
// agree with the system this package reimplements to within floating
// point tolerance.
package numerics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mathext"

	"github.com/nki-avl/screenkit/internal/errs"
)

var ln2PI = math.Log(2 * math.Pi)

// bd0 computes x*log(x/np) + np - x using the Taylor series of
// log((1+y)/(1-y)) with y = (x-np)/(x+np). This form stays numerically
// stable as x approaches np, where the direct formula loses precision.
func bd0(x, np float64) float64 {
	y := (x - np) / (x + np)
	y2 := y * y
	s := 2 * y

	for n := 1; n < 1000; n++ {
		y *= y2
		t := 2 * y / float64(2*n+1)
		s1 := s + t
		if s1 == s {
			break
		}
		s = s1
	}

	return x*s + np - x
}

var stirlingErrors = func() [16]float64 {
	var t [16]float64
	for n := 1; n <= 15; n++ {
		t[n] = stirlingErrorExact(n)
	}
	return t
}()

func stirlingErrorExact(n int) float64 {
	nf := float64(n)
	return lgamma(nf+1) - (nf+0.5)*math.Log(nf) + nf - math.Log(math.Sqrt(2*math.Pi))
}

// StirlingError returns the Stirling series correction term for n!,
// using an exact table for n <= 15 and an asymptotic series with
// size-selected correction terms above that.
func StirlingError(n int64) float64 {
	if n >= 0 && n <= 15 {
		return stirlingErrors[n]
	}
	return stirlingAsymptotic(float64(n))
}

// stirlingAsymptotic applies the original's unconditional cascade of
// correction terms, gated only by the size thresholds that decide
// which of the first three terms is included.
func stirlingAsymptotic(n float64) float64 {
	n2 := n * n
	var result float64
	if n <= 35 {
		result = (1 / 1188.0) / n2
	}
	if n <= 80 {
		result = (1/1680.0 - result) / n2
	}
	if n <= 500 {
		result = (1/1260.0 - result) / n2
	}
	result = (1/360.0 - result) / n2
	result = (1/12.0 - result) / n2
	result *= n
	return result
}

// logBinomialCoefficient returns the natural log of the probability
// that a Binomial(n, p) variate equals x, following the same boundary
// cases and Stirling-corrected main path as the reference
// implementation's binomial_coefficient.
func logBinomialCoefficient(x, n int64, p float64) float64 {
	if x < 0 || n < 0 {
		return 0
	}
	q := 1 - p
	switch {
	case p == 0:
		if x == 0 {
			return 1
		}
		return 0
	case q == 0:
		if x == n {
			return 1
		}
		return 0
	case x == 0 && n == 0:
		return 1
	case x == 0:
		if p < 0.1 {
			return -bd0(float64(n), float64(n)*q) - float64(n)*p
		}
		return float64(n) * math.Log(q)
	case x == n:
		if q < 0.1 {
			return -bd0(float64(n), float64(n)*p) - float64(n)*q
		}
		return float64(n) * math.Log(p)
	case x < 0 || x > n:
		return 0
	default:
		lc := StirlingError(n) - StirlingError(x) - StirlingError(n-x) - bd0(float64(x), float64(n)*p) - bd0(float64(n-x), float64(n)*q)
		lf := ln2PI + math.Log(float64(x)) + math.Log1p(-float64(x)/float64(n))
		return lc - 0.5*lf
	}
}

// LogBinomialPMF is the exported form of the Stirling-corrected
// log-binomial probability used by LogHypergeometric.
func LogBinomialPMF(x, n int64, p float64) float64 {
	return logBinomialCoefficient(x, n, p)
}

// LogHypergeometric returns the log-probability of drawing exactly x
// successes in n draws without replacement from a population with r
// successes and b failures, expressed as a sum of three log-binomial
// terms at p = n/(r+b) (Stirling's approximation to the hypergeometric
// coefficient ratio).
func LogHypergeometric(x, r, b, n int64) float64 {
	if n < x || r < x || n-x > b {
		return 0
	}
	if n == 0 {
		if x == 0 {
			return 1
		}
		return 0
	}
	p := float64(n) / float64(r+b)
	p1 := logBinomialCoefficient(x, r, p)
	p2 := logBinomialCoefficient(n-x, b, p)
	p3 := logBinomialCoefficient(n, r+b, p)
	return p1 + p2 - p3
}

// FisherExact2x2 returns the two-sided p-value of Fisher's exact test
// for the 2x2 contingency table v, by enumerating the hypergeometric
// distribution over the support of the table's margins, rescaling in
// log space for stability, and summing the probability mass no larger
// than the observed cell's probability scaled by a small relative
// tolerance.
func FisherExact2x2(v [2][2]int64) float64 {
	m := v[0][0] + v[0][1]
	n := v[1][0] + v[1][1]
	k := v[0][0] + v[1][0]
	x := v[0][0]

	lo := k - n
	if lo < 0 {
		lo = 0
	}
	hi := k
	if hi > m {
		hi = m
	}

	d := make([]float64, hi-lo+1)
	for i := lo; i <= hi; i++ {
		d[i-lo] = LogHypergeometric(i, m, n, k)
	}

	dmax := d[0]
	for _, di := range d {
		if di > dmax {
			dmax = di
		}
	}

	var dsum float64
	for i := range d {
		d[i] = math.Exp(d[i] - dmax)
		dsum += d[i]
	}
	for i := range d {
		d[i] /= dsum
	}

	const kRelErr = 1 + 1e-7
	max := d[x-lo] * kRelErr

	var sum float64
	for _, di := range d {
		if di <= max {
			sum += di
		}
	}
	return sum
}

// NoTest is the BH sentinel for "this transcript/gene has no p-value",
// excluding it from both the multiple-testing count M and the ranking.
const NoTest = -1

// AdjustBH applies the Benjamini-Hochberg false discovery rate
// adjustment to p, treating any entry equal to NoTest as absent from
// both the ranking and the multiple-testing count M, and returning
// those positions as 0 in the result.
func AdjustBH(p []float64) []float64 {
	n := len(p)
	ix := make([]int, 0, n)
	for i, pv := range p {
		if pv != NoTest {
			ix = append(ix, i)
		}
	}
	m := len(ix)

	sortIxByP(ix, p)

	result := make([]float64, n)
	for i, idx := range ix {
		v := float64(m) * p[idx] / float64(i+1)
		if v > 1 {
			v = 1
		}
		result[idx] = v
	}
	return result
}

func sortIxByP(ix []int, p []float64) {
	// Simple insertion sort is sufficient here: gene/transcript counts
	// are in the thousands and this runs once per cache build.
	for i := 1; i < len(ix); i++ {
		j := i
		for j > 0 && p[ix[j-1]] > p[ix[j]] {
			ix[j-1], ix[j] = ix[j], ix[j-1]
			j--
		}
	}
}

// binomPMF is the probability mass of a Binomial(n, p) variate at x,
// computed directly via lgamma rather than through the Stirling-error
// path (matching the reference binom_pmf, which is a separate, simpler
// routine from binomial_coefficient above).
func binomPMF(x, n int64, p float64) float64 {
	combiln := lgamma(float64(n)+1) - (lgamma(float64(x)+1) + lgamma(float64(n-x)+1))
	return math.Exp(combiln + xlogy(float64(x), p) + xlog1py(float64(n-x), -p))
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func xlogy(x, y float64) float64 {
	if x == 0 && !math.IsNaN(y) {
		return 0
	}
	return x * math.Log(y)
}

func xlog1py(x, y float64) float64 {
	if x == 0 && !math.IsNaN(y) {
		return 0
	}
	return x * math.Log1p(y)
}

func binomCDF(x, n, p float64) float64 {
	switch {
	case x == n:
		return 1
	case x == 0:
		return math.Pow(1-p, n-x)
	default:
		return mathext.RegIncBeta(n-x, x+1, 1-p)
	}
}

func binomSF(x, n, p float64) float64 {
	switch {
	case x == n:
		return 0
	case x == 0:
		if p < 0.01 {
			return -math.Expm1((n - x) * math.Log1p(-p))
		}
		return 1 - math.Pow(1-p, n-x)
	default:
		return mathext.RegIncBeta(x+1, n-x, p)
	}
}

// BinomTest returns the two-sided p-value for observing x successes
// in n Bernoulli(p) trials, following the standard rule of summing
// cdf/sf tail mass on the side opposite x, bounded by the count of
// outcomes whose pmf does not exceed pmf(x) scaled by a small relative
// tolerance. p must be in [0,1].
func BinomTest(x, n int64, p float64) (float64, error) {
	if p < 0 || p > 1 {
		return 0, errs.New(errs.LogicError, "BinomTest", errInvalidP)
	}

	nf, xf := float64(n), float64(x)
	d := binomPMF(x, n, p)
	const rerr = 1 + 1e-7
	dRerr := d * rerr

	pval := 1.0
	switch {
	case xf < p*nf:
		y := int64(0)
		for i := int64(math.Ceil(p * nf)); i <= n; i++ {
			if binomPMF(i, n, p) <= dRerr {
				y++
			}
		}
		pval = binomCDF(xf, nf, p) + binomSF(nf-float64(y), nf, p)
	case xf > p*nf:
		y := int64(0)
		for i := int64(0); i <= int64(math.Floor(p*nf)); i++ {
			if binomPMF(i, n, p) <= dRerr {
				y++
			}
		}
		pval = binomCDF(float64(y-1), nf, p) + binomSF(xf-1, nf, p)
	}

	return pval, nil
}

var errInvalidP = errors.New("p should be in the range 0 <= p <= 1")
