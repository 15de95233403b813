package rest

const maxPageSize = 100

// paginationParams are the shared limit/offset query parameters
type paginationParams struct {
	Limit  int    `form:"limit,default=50"`
	Offset uint64 `form:"offset,default=0"`
}

func (p *paginationParams) clamp() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
}

// collectionsQueryParams filter the collection list
type collectionsQueryParams struct {
	paginationParams
	Issuer string `form:"issuer"`
}

// listingsQueryParams filter the active listing list
type listingsQueryParams struct {
	paginationParams
	CollectionID string `form:"collection_id"`
	Seller       string `form:"seller"`
}
