package model

// Target names a collection together with the string fields inside it that
// are eligible for URL rewriting.
type Target struct {
	// Name identifies the target in statistics and log output.
	Name string

	// Collection is the MongoDB collection to scan.
	Collection string

	// Fields are the document fields inspected for the old URL prefix,
	// in the order they are checked.
	Fields []string

	// StampUpdatedAt controls whether a rewritten document also receives
	// an updatedAt timestamp on write.
	StampUpdatedAt bool
}

// Target names used in statistics and logs.
const (
	TargetGroundTruth = "groundtruth"
	TargetUserClothes = "user_clothes"
)

// Field carrying the write timestamp for targets that stamp it.
const UpdatedAtField = "updatedAt"

// DefaultTargets returns the configured scan targets in processing order:
// ground-truth first, then user-uploaded clothes.
func DefaultTargets(groundTruthCollection, userClothesCollection string) []Target {
	return []Target{
		{
			Name:       TargetGroundTruth,
			Collection: groundTruthCollection,
			Fields: []string{
				"minioUrl",
				"s3Url",
				"minioUrlOracle",
				"minioUrlThinker",
			},
		},
		{
			Name:       TargetUserClothes,
			Collection: userClothesCollection,
			Fields: []string{
				"imageUrl",
				"segmentedImageUrl",
			},
			StampUpdatedAt: true,
		},
	}
}
