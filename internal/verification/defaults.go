package verification

const (
	TypeDefault         = "default"
	TypeHasPlayed       = "has_played"
	TypeScoreGt50       = "score_gt_50"
	TypeScoreGt100      = "score_gt_100"
	TypeHasDomain       = "has_domain"
	TypeTonWalletActive = "ton_wallet_active"
)

type Options struct {
	HTTPClient Doer

	// Strategies whose backing service is not configured stay unregistered, so their tasks fail
	// with ErrUnsupportedVerificationType instead of passing.
	ScoreBaseURL  string
	NamingBaseURL string
	TonSource     BalanceSource
}

func RegisterDefaults(r *Registry, opts Options) error {
	err := r.Register(TypeDefault, RedirectVerifier{})
	if err != nil {
		return err
	}

	if opts.ScoreBaseURL != "" {
		scores := map[string]*ScoreVerifier{
			TypeHasPlayed:  {Client: opts.HTTPClient, BaseURL: opts.ScoreBaseURL, RequirePlay: true},
			TypeScoreGt50:  {Client: opts.HTTPClient, BaseURL: opts.ScoreBaseURL, Threshold: 50},
			TypeScoreGt100: {Client: opts.HTTPClient, BaseURL: opts.ScoreBaseURL, Threshold: 100},
		}
		for verifyType, verifier := range scores {
			err = r.Register(verifyType, verifier)
			if err != nil {
				return err
			}
		}
	}

	if opts.NamingBaseURL != "" {
		err = r.Register(TypeHasDomain, &DomainVerifier{Client: opts.HTTPClient, BaseURL: opts.NamingBaseURL})
		if err != nil {
			return err
		}
	}

	if opts.TonSource != nil {
		err = r.Register(TypeTonWalletActive, &TonWalletVerifier{Source: opts.TonSource})
		if err != nil {
			return err
		}
	}

	return nil
}
