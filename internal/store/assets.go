package store

import "github.com/sundayschool-dev/sundayschool/internal/models"

// AssetAction is one of LoadAssets, AddAsset, UpdateAsset, DeleteAsset
type AssetAction interface {
	assetAction()
}

type LoadAssets struct{ Assets []models.Asset }

type AddAsset struct{ Asset models.Asset }

type UpdateAsset struct {
	ID    string
	Patch models.AssetPatch
}

type DeleteAsset struct{ ID string }

func (LoadAssets) assetAction()  {}
func (AddAsset) assetAction()    {}
func (UpdateAsset) assetAction() {}
func (DeleteAsset) assetAction() {}

func assetID(a models.Asset) string { return a.ID }

// ReduceAssets is the asset list reducer
func ReduceAssets(state []models.Asset, action AssetAction) []models.Asset {
	switch a := action.(type) {
	case LoadAssets:
		return append([]models.Asset(nil), a.Assets...)
	case AddAsset:
		return append(append(make([]models.Asset, 0, len(state)+1), state...), a.Asset)
	case UpdateAsset:
		return updated(state, a.ID, assetID, func(asset *models.Asset) {
			a.Patch.Apply(asset)
		})
	case DeleteAsset:
		return without(state, a.ID, assetID)
	default:
		return state
	}
}

// Assets is a store over the asset list
type Assets = Store[[]models.Asset, AssetAction]

// NewAssets creates an empty asset store
func NewAssets() *Assets {
	return New[[]models.Asset, AssetAction](nil, ReduceAssets)
}
