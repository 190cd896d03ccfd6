package storage

// Object key layout inside the bucket. Multi-tenant mode prefixes every
// key with the tenant UUID so tenants never share a key space.

// DocumentKey returns the object key for a rendered document
func DocumentKey(multiTenant bool, appUUID, fileName string) string {
	return prefix(multiTenant, appUUID) + "documents/" + fileName
}

// TemplateAssetKey returns the object key for a template binary asset
func TemplateAssetKey(multiTenant bool, appUUID, templateID, assetUUID string) string {
	return prefix(multiTenant, appUUID) + "templates/" + templateID + "/" + assetUUID
}

func prefix(multiTenant bool, appUUID string) string {
	if multiTenant {
		return appUUID + "/"
	}
	return ""
}
