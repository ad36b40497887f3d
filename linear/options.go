package linear

// Option は LinearRegression を設定する関数
type Option func(*LinearRegression)

// WithFitIntercept は切片を計算するかどうかを設定する
func WithFitIntercept(fit bool) Option {
	return func(lr *LinearRegression) {
		lr.FitIntercept = fit
	}
}

// WithRCond は特異値を0とみなす相対しきい値を設定する
func WithRCond(rcond float64) Option {
	return func(lr *LinearRegression) {
		lr.RCond = rcond
	}
}
