// Package types defines the enums used as attributes of structured operations.
package types

//go:generate go tool enumer -type=IteratorType -trimprefix=Iterator -transform=snake -output=gen_iteratortype_enum.go types.go
//go:generate go tool enumer -type=DistributionType -trimprefix=Distribution -transform=snake -output=gen_distributiontype_enum.go types.go

// IteratorType is the kind of iteration of a loop dimension.
type IteratorType int

const (
	// IteratorParallel dimensions can be iterated in any order, and concurrently.
	IteratorParallel IteratorType = iota

	// IteratorReduction dimensions accumulate into the outputs, and must be iterated sequentially.
	IteratorReduction
)

// DistributionType is the hint of how a loop dimension is distributed over processors.
type DistributionType int

const (
	DistributionNone DistributionType = iota
	DistributionBlockX
	DistributionBlockY
	DistributionBlockZ
	DistributionThreadX
	DistributionThreadY
	DistributionThreadZ
)

// ParseIteratorTypes converts textual iterator kinds (e.g. "parallel") to IteratorType values.
func ParseIteratorTypes(names ...string) ([]IteratorType, error) {
	iterators := make([]IteratorType, len(names))
	for i, name := range names {
		it, err := IteratorTypeString(name)
		if err != nil {
			return nil, err
		}
		iterators[i] = it
	}
	return iterators, nil
}

// ParseDistributionTypes converts textual distribution kinds (e.g. "block_x") to DistributionType values.
func ParseDistributionTypes(names ...string) ([]DistributionType, error) {
	kinds := make([]DistributionType, len(names))
	for i, name := range names {
		kind, err := DistributionTypeString(name)
		if err != nil {
			return nil, err
		}
		kinds[i] = kind
	}
	return kinds, nil
}
