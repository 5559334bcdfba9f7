package validators

import "go.mongodb.org/mongo-driver/bson"

var ReminderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"email",
			"due_at",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"service_name": bson.M{
				"bsonType": "string",
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"time_slot": bson.M{
				"bsonType": "string",
			},

			"due_at": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"sending",
					"sent",
					"failed",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"claimed_at": bson.M{
				"bsonType": "date",
			},

			"sent_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
