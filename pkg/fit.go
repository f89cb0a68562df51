package calib

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fit"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	parAmplitude = iota
	parMean
	parSigma
	nPars
)

// PeakFit is the result of a Gaussian fit of a photopeak.
type PeakFit struct {
	ModeEstimate float64
	Amplitude    float64
	Mean         float64
	MeanErr      float64
	Sigma        float64
	SigmaErr     float64
	Chi2         float64
	NPoints      int
}

func gauss(x float64, ps []float64) float64 {
	v := (x - ps[parMean]) / ps[parSigma]
	return ps[parAmplitude] * math.Exp(-0.5*v*v)
}

// gaussGrad is the derivative of gauss with respect to its parameters.
func gaussGrad(grad []float64, x float64, ps []float64) {
	a, m, s := ps[parAmplitude], ps[parMean], ps[parSigma]
	d := x - m
	e := math.Exp(-0.5 * d * d / (s * s))
	grad[parAmplitude] = e
	grad[parMean] = a * e * d / (s * s)
	grad[parSigma] = a * e * d * d / (s * s * s)
}

// ModeEstimate returns the centre of the first most populated bin whose
// centre lies in [lo, hi].
func ModeEstimate(h *hbook.H1D, lo, hi float64) (float64, bool) {
	best := -1
	bestCount := 0.0
	for i, bin := range h.Binning.Bins {
		x := bin.XMid()
		if x < lo || x > hi {
			continue
		}
		if bin.SumW() > bestCount {
			best = i
			bestCount = bin.SumW()
		}
	}
	if best < 0 {
		return 0, false
	}
	return h.Binning.Bins[best].XMid(), true
}

// FitPhotopeak fits a Gaussian to the bins of h in a window of relative
// half-width cfg.WindowFraction around the mode estimate. Empty bins are
// ignored and bin errors are sqrt(n).
func FitPhotopeak(h *hbook.H1D, channel int, cfg Configuration) (PeakFit, error) {
	var res PeakFit
	mode, ok := ModeEstimate(h, cfg.PeakSearchMin, cfg.PeakSearchMax)
	if !ok {
		return res, &ErrFit{Channel: channel, Reason: "no populated bin in peak search range"}
	}
	res.ModeEstimate = mode

	lo := mode - cfg.WindowFraction*mode
	hi := mode + cfg.WindowFraction*mode
	if lo > hi {
		lo, hi = hi, lo
	}

	var xs, ys, errs []float64
	var sumw, sumwx, sumwx2 float64
	for _, bin := range h.Binning.Bins {
		x := bin.XMid()
		n := bin.SumW()
		if x < lo || x > hi || n <= 0 {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, n)
		errs = append(errs, math.Sqrt(n))
		sumw += n
		sumwx += n * x
		sumwx2 += n * x * x
	}
	res.NPoints = len(xs)
	if len(xs) < nPars {
		return res, &ErrFit{Channel: channel, Reason: fmt.Sprintf("%d points in fit window [%g, %g]", len(xs), lo, hi)}
	}

	mean0 := sumwx / sumw
	sigma0 := math.Sqrt(math.Max(sumwx2/sumw-mean0*mean0, 0))
	if sigma0 <= 0 {
		sigma0 = h.Binning.Bins[0].XWidth()
	}
	amp0 := 0.0
	for _, y := range ys {
		amp0 = math.Max(amp0, y)
	}

	result, err := fit.Curve1D(
		fit.Func1D{
			F:   gauss,
			X:   xs,
			Y:   ys,
			Err: errs,
			Ps:  []float64{amp0, mode, sigma0},
		},
		nil, &optimize.NelderMead{},
	)
	if err != nil {
		return res, &ErrFit{Channel: channel, Reason: "fit did not converge", Err: err}
	}

	ps := result.X
	ps[parSigma] = math.Abs(ps[parSigma])
	for _, p := range ps {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return res, &ErrFit{Channel: channel, Reason: fmt.Sprintf("non-finite parameters %v", ps)}
		}
	}
	if ps[parSigma] == 0 {
		return res, &ErrFit{Channel: channel, Reason: "null width"}
	}

	cov, err := covariance(xs, errs, ps)
	if err != nil {
		return res, &ErrFit{Channel: channel, Reason: "singular covariance", Err: err}
	}

	res.Amplitude = ps[parAmplitude]
	res.Mean = ps[parMean]
	res.Sigma = ps[parSigma]
	res.MeanErr = math.Sqrt(cov.At(parMean, parMean))
	res.SigmaErr = math.Sqrt(cov.At(parSigma, parSigma))
	for i, x := range xs {
		r := (ys[i] - gauss(x, ps)) / errs[i]
		res.Chi2 += r * r
	}
	return res, nil
}

// covariance returns (J^T W J)^-1 at the minimum of the chi2.
func covariance(xs, errs, ps []float64) (*mat.SymDense, error) {
	jtj := mat.NewSymDense(nPars, nil)
	grad := make([]float64, nPars)
	for i, x := range xs {
		gaussGrad(grad, x, ps)
		w := 1 / (errs[i] * errs[i])
		for j := 0; j < nPars; j++ {
			for k := j; k < nPars; k++ {
				jtj.SetSym(j, k, jtj.At(j, k)+w*grad[j]*grad[k])
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(jtj); !ok {
		return nil, fmt.Errorf("J^T W J is not positive definite")
	}
	cov := mat.NewSymDense(nPars, nil)
	if err := chol.InverseTo(cov); err != nil {
		return nil, err
	}
	return cov, nil
}

// Accept applies the quality gate on a fit result.
func (f PeakFit) Accept(channel int, cfg Configuration) error {
	if !(f.Sigma < cfg.SigmaMax) {
		return &ErrFit{Channel: channel, Reason: fmt.Sprintf("sigma %g >= %g", f.Sigma, cfg.SigmaMax)}
	}
	if !(f.MeanErr < cfg.MaxRelError*f.Mean) {
		return &ErrFit{Channel: channel, Reason: fmt.Sprintf("mean error %g >= %g * mean (%g)", f.MeanErr, cfg.MaxRelError, f.Mean)}
	}
	return nil
}
