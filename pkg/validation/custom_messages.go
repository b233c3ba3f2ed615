package validation

func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"Email": {
			"required": "email is required",
			"email":    "email address is not valid",
		},
		"Phone": {
			"required": "phone number is required",
			"min":      "phone number is too short",
			"max":      "phone number is too long",
		},
		"Password": {
			"required": "password is required",
			"min":      "password must be at least 6 characters",
		},
		"FirstName": {
			"required": "first name is required",
		},
		"LastName": {
			"required": "last name is required",
		},
		"EmployeeCode": {
			"required": "employee code is required",
		},
		"Username": {
			"required": "username is required",
		},
		"DeviceID": {
			"required": "device id is required",
			"min":      "device id is too short",
		},
		"Token": {
			"required": "token is required",
		},
		"RefreshToken": {
			"required": "refresh token is required",
		},
	}
	return customValidationMessages[field]
}
