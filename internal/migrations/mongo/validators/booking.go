package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"service_id",
			"email",
			"date",
			"time_slot",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"service_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"time_slot": bson.M{
				"bsonType": "string",
				"enum": []string{
					"10:00 AM",
					"11:00 AM",
					"12:00 PM",
					"1:00 PM",
					"2:00 PM",
					"3:00 PM",
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"payment_failed",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
			},

			"payment_method": bson.M{
				"bsonType": "string",
			},

			"payment_intent_id": bson.M{
				"bsonType": "string",
			},

			"stripe_payment_id": bson.M{
				"bsonType": "string",
			},

			"confirmation_sent": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
