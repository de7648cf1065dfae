package catalog

import (
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// Analyzer is a database-scoped named tokenizer+filter chain shared
// by full-text indexes (spec §3 "Indexes"). Tokenizers and Filters
// name internal/search's registered tokenizer/filter implementations
// ("blank", "class", "camel", "punct" / "lowercase", "ascii", "snowball:en", "edgengram:2:10", "ngram:3:3").
type Analyzer struct {
	NS, DB, Name string
	Tokenizers   []string
	Filters      []string
}

func (a Analyzer) toValue() val.Value {
	toks := make([]val.Value, len(a.Tokenizers))
	for i, t := range a.Tokenizers {
		toks[i] = val.String(t)
	}
	filts := make([]val.Value, len(a.Filters))
	for i, f := range a.Filters {
		filts[i] = val.String(f)
	}
	return val.Object(map[string]val.Value{
		"ns":         val.String(a.NS),
		"db":         val.String(a.DB),
		"name":       val.String(a.Name),
		"tokenizers": val.Array(toks),
		"filters":    val.Array(filts),
	})
}

func analyzerFromValue(v val.Value) Analyzer {
	obj, _ := v.AsObject()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	name, _ := obj["name"].AsString()
	toksArr, _ := obj["tokenizers"].AsArray()
	toks := make([]string, len(toksArr))
	for i, t := range toksArr {
		toks[i], _ = t.AsString()
	}
	filtsArr, _ := obj["filters"].AsArray()
	filts := make([]string, len(filtsArr))
	for i, f := range filtsArr {
		filts[i], _ = f.AsString()
	}
	return Analyzer{NS: ns, DB: db, Name: name, Tokenizers: toks, Filters: filts}
}

func DefineAnalyzer(txn txnWriter, a Analyzer) (Analyzer, error) {
	if _, err := GetDatabase(txn, a.NS, a.DB); err != nil {
		return Analyzer{}, err
	}
	key, err := keys.Analyzer{NS: a.NS, DB: a.DB, Name: a.Name}.Encode()
	if err != nil {
		return Analyzer{}, err
	}
	if err := defineEntity(txn, "catalog.DefineAnalyzer", key, a.toValue(), true); err != nil {
		return Analyzer{}, err
	}
	return a, nil
}

func GetAnalyzer(txn txnReader, ns, db, name string) (Analyzer, error) {
	key, err := keys.Analyzer{NS: ns, DB: db, Name: name}.Encode()
	if err != nil {
		return Analyzer{}, err
	}
	v, err := readEntity(txn, "catalog.GetAnalyzer", key)
	if err != nil {
		return Analyzer{}, err
	}
	return analyzerFromValue(v), nil
}

func RemoveAnalyzer(txn txnWriter, ns, db, name string) error {
	key, err := keys.Analyzer{NS: ns, DB: db, Name: name}.Encode()
	if err != nil {
		return err
	}
	return removeEntity(txn, key)
}
