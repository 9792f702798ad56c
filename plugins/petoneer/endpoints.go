package petoneer

const (
	defaultBaseURL = "https://as.revogi.net/app"
	protocol       = "3"
	codeOK         = 200
)

const (
	pathLogin          = "/user/101"
	pathDeviceList     = "/user/500"
	pathDeviceDetails  = "/pww/31101"
	pathDeviceSchedule = "/pww/31102"
	pathSwitch         = "/pww/21101"
	pathPumpSchedule   = "/pww/21102"
	pathResetPumpClean = "/pww/21103"
	pathLED            = "/pww/21104"
	pathResetFilter    = "/pww/21105"
	pathResetWater     = "/pww/21107"
)
