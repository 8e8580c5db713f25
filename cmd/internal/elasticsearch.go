package internal

import (
	esv7 "github.com/elastic/go-elasticsearch/v7"

	"github.com/plefebvre/task-api/internal"
	"github.com/plefebvre/task-api/internal/envvar"
)

// NewElasticSearch instantiates the ElasticSearch client using configuration
// defined in environment variables.
func NewElasticSearch(conf *envvar.Configuration) (es *esv7.Client, err error) {
	addr, err := conf.Get("ELASTICSEARCH_URL")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get ELASTICSEARCH_URL")
	}

	es, err = esv7.NewClient(esv7.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "elasticsearch.NewClient")
	}

	res, err := es.Info()
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "es.Info")
	}

	defer func() {
		err = res.Body.Close()
	}()

	return es, nil
}
