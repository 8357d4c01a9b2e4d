package interfaces

// ComponentInstaller receives each enabled component once the configuration
// file has been checked. Package, service and database work lives behind it.
type ComponentInstaller interface {
	// Install installs or upgrades one component
	Install(component string, cfg ConfigReader, upgrade bool) error
}
