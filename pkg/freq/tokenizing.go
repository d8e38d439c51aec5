package freq

// TokenizingOracle scores phrases and compound words by tokenizing them first
// and combining the token frequencies of the underlying oracle.
type TokenizingOracle struct {
	Base       Oracle
	Tokenizers Tokenizers
}

// Frequency implements Oracle. A single token is looked up directly. Several
// tokens combine as 1 / sum(1/f_i): the phrase is rarer than its rarest part.
// Any unknown token makes the whole phrase unknown.
func (o *TokenizingOracle) Frequency(word, language string) (float64, error) {
	tokens := o.Tokenizers.For(language).Tokenize(Normalize(word))
	switch len(tokens) {
	case 0:
		return 0, nil
	case 1:
		return o.Base.Frequency(tokens[0], language)
	}

	var inverse float64
	for _, tok := range tokens {
		f, err := o.Base.Frequency(tok, language)
		if err != nil {
			return 0, err
		}
		if f <= 0 {
			return 0, nil
		}
		inverse += 1 / f
	}
	return 1 / inverse, nil
}
